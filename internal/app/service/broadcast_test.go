package service

import (
	"context"
	"strings"
	"testing"

	"wallet_engine/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedDraft() *entity.Transaction {
	return &entity.Transaction{
		ID:            "0xtxid5",
		AssetCode:     testPrimary,
		NativeAmount:  "-1000",
		NetworkFee:    "1000",
		SignedPayload: "0xpayload5",
	}
}

func newTestBroadcaster(store *LedgerStore, fetcher *scriptedFetcher, signer *stubSigner, persist func()) *Broadcaster {
	return NewBroadcaster(store, fetcher, signer, "http://node.test", 3, persist, zap.NewNop())
}

func TestBroadcast(t *testing.T) {
	t.Run("AcceptedAdvancesNonceOnce", func(t *testing.T) {
		store := newTestStore()
		store.AdvanceNonce(5)
		fetcher := &scriptedFetcher{responses: []string{
			`{"tx":{"hash":"0xtxid5"}}`,
		}}
		persists := 0
		b := newTestBroadcaster(store, fetcher, &stubSigner{}, func() { persists++ })

		tx, err := b.Broadcast(context.Background(), signedDraft())
		require.NoError(t, err)
		assert.Equal(t, "0xtxid5", tx.ID)
		assert.Equal(t, "6", store.NextNonce())
		assert.Equal(t, 1, persists)

		require.Len(t, fetcher.calls, 1)
		assert.Equal(t, "http://node.test/broadcasttx/payload5", fetcher.calls[0])
	})

	t.Run("NonceTooLowBumpsUpAndResigns", func(t *testing.T) {
		store := newTestStore()
		store.AdvanceNonce(5)
		fetcher := &scriptedFetcher{responses: []string{
			`{"error":"nonce too low"}`,
			`{"tx":{"hash":"0xtxid6"}}`,
		}}
		signer := &stubSigner{}
		persists := 0
		b := newTestBroadcaster(store, fetcher, signer, func() { persists++ })

		tx, err := b.Broadcast(context.Background(), signedDraft())
		require.NoError(t, err)

		// One bump for the conflict, one for the accepted send.
		assert.Equal(t, "7", store.NextNonce())
		assert.Equal(t, []string{"6"}, signer.signCalls)
		assert.Equal(t, "0xtxid6", tx.ID)
		assert.Equal(t, "0xpayload6", tx.SignedPayload)
		assert.Equal(t, 2, persists)
	})

	t.Run("OrphanedReferenceBumpsDown", func(t *testing.T) {
		store := newTestStore()
		store.AdvanceNonce(5)
		fetcher := &scriptedFetcher{responses: []string{
			`{"error":"Error validating transaction: tx is orphaned, missing reference"}`,
			`{"tx":{"hash":"0xtxid4"}}`,
		}}
		signer := &stubSigner{}
		b := newTestBroadcaster(store, fetcher, signer, nil)

		_, err := b.Broadcast(context.Background(), signedDraft())
		require.NoError(t, err)
		assert.Equal(t, []string{"4"}, signer.signCalls)
		assert.Equal(t, "5", store.NextNonce())
	})

	t.Run("RetryCeilingConvertsToFatal", func(t *testing.T) {
		store := newTestStore()
		store.AdvanceNonce(5)
		fetcher := &scriptedFetcher{responses: []string{
			`{"error":"nonce too low"}`,
			`{"error":"nonce too low"}`,
			`{"error":"nonce too low"}`,
			`{"error":"nonce too low"}`,
		}}
		signer := &stubSigner{}
		b := newTestBroadcaster(store, fetcher, signer, nil)

		_, err := b.Broadcast(context.Background(), signedDraft())
		assert.ErrorIs(t, err, entity.ErrBroadcastRetryExhausted)
		assert.Len(t, fetcher.calls, 4)
		assert.Len(t, signer.signCalls, 3)
	})

	t.Run("OtherServerErrorIsFatalImmediately", func(t *testing.T) {
		store := newTestStore()
		fetcher := &scriptedFetcher{responses: []string{
			`{"error":"insufficient funds for gas"}`,
		}}
		b := newTestBroadcaster(store, fetcher, &stubSigner{}, nil)

		_, err := b.Broadcast(context.Background(), signedDraft())
		var bcErr *entity.BroadcastError
		require.ErrorAs(t, err, &bcErr)
		assert.Contains(t, bcErr.Reason, "insufficient funds")
		assert.Equal(t, "0", store.NextNonce())
		assert.Len(t, fetcher.calls, 1)
	})

	t.Run("MissingHashIsFatal", func(t *testing.T) {
		store := newTestStore()
		fetcher := &scriptedFetcher{responses: []string{`{}`}}
		b := newTestBroadcaster(store, fetcher, &stubSigner{}, nil)

		_, err := b.Broadcast(context.Background(), signedDraft())
		var bcErr *entity.BroadcastError
		require.ErrorAs(t, err, &bcErr)
		assert.True(t, strings.Contains(bcErr.Reason, "invalid return value"))
	})

	t.Run("TransportErrorSurfaces", func(t *testing.T) {
		store := newTestStore()
		fetcher := &scriptedFetcher{}
		b := newTestBroadcaster(store, fetcher, &stubSigner{}, nil)

		_, err := b.Broadcast(context.Background(), signedDraft())
		assert.Error(t, err)
		assert.Equal(t, "0", store.NextNonce())
	})
}
