package service

import (
	"strings"
	"testing"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const counterparty = "0x9fc3da866e7df3a1c57fff1ce295ffbb9009ce32"

func newTestReconciler(store *LedgerStore) *Reconciler {
	return NewReconciler(store, zap.NewNop())
}

func TestReconcilePrimaryTransfer(t *testing.T) {
	t.Run("IncomingCreditsAmountOnly", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		changed, err := recon.Reconcile(PrimaryTransfer{
			Hash:        "0xaa",
			From:        counterparty,
			To:          testAddress,
			BlockHeight: 100,
			Timestamp:   1700000000,
			Amount:      "5000",
			GasUsed:     "21000",
			GasPrice:    "2",
		})
		require.NoError(t, err)
		require.True(t, changed)

		tx := store.Transactions(testPrimary, 0, 0)[0]
		assert.Equal(t, "5000", tx.NativeAmount)
		assert.Equal(t, "42000", tx.NetworkFee)
		assert.Equal(t, []string{testAddress}, tx.OurReceiveAddresses)
		assert.Equal(t, entity.SignedPayloadNone, tx.SignedPayload)
	})

	t.Run("OutgoingDebitsAmountPlusFee", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		changed, err := recon.Reconcile(PrimaryTransfer{
			Hash:        "0xbb",
			From:        strings.ToUpper(testAddress),
			To:          counterparty,
			BlockHeight: 101,
			Timestamp:   1700000100,
			Amount:      "5000",
			GasUsed:     "21000",
			GasPrice:    "2",
		})
		require.NoError(t, err)
		require.True(t, changed)

		tx := store.Transactions(testPrimary, 0, 0)[0]
		assert.Equal(t, "-47000", tx.NativeAmount)
		assert.Equal(t, "42000", tx.NetworkFee)
		assert.Empty(t, tx.OurReceiveAddresses)
	})

	t.Run("RepeatedRecordIsIdempotent", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)
		rec := PrimaryTransfer{
			Hash: "0xcc", From: counterparty, To: testAddress,
			BlockHeight: 102, Timestamp: 1700000200,
			Amount: "1", GasUsed: "21000", GasPrice: "1",
		}

		changed, err := recon.Reconcile(rec)
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = recon.Reconcile(rec)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 1, store.TransactionCount(testPrimary))
	})
}

func TestReconcileTokenLogEvent(t *testing.T) {
	base := TokenLogEvent{
		AssetCode:   "TOK",
		Hash:        "0xdd",
		BlockHeight: 200,
		Timestamp:   1700001000,
		Amount:      "777",
		GasUsed:     "37123",
		GasPrice:    "3",
	}

	t.Run("IncomingByToTopic", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		rec := base
		rec.FromTopic = utils.PadAddress(counterparty)
		rec.ToTopic = utils.PadAddress(testAddress)
		changed, err := recon.Reconcile(rec)
		require.NoError(t, err)
		require.True(t, changed)

		tx := store.Transactions("TOK", 0, 0)[0]
		assert.Equal(t, "777", tx.NativeAmount)
		assert.Equal(t, "0", tx.NetworkFee)
		assert.Equal(t, []string{testAddress}, tx.OurReceiveAddresses)
		assert.Equal(t, []string{utils.NormalizeAddress(counterparty)}, tx.Aux.From)
	})

	t.Run("OutgoingByFromTopicExcludesFee", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		rec := base
		rec.FromTopic = utils.PadAddress(testAddress)
		rec.ToTopic = utils.PadAddress(counterparty)
		changed, err := recon.Reconcile(rec)
		require.NoError(t, err)
		require.True(t, changed)

		tx := store.Transactions("TOK", 0, 0)[0]
		assert.Equal(t, "-777", tx.NativeAmount)
		assert.Equal(t, "0", tx.NetworkFee)
	})

	t.Run("UnrelatedEventIsIgnored", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		rec := base
		rec.FromTopic = utils.PadAddress(counterparty)
		rec.ToTopic = utils.PadAddress("0x1111111111111111111111111111111111111111")
		changed, err := recon.Reconcile(rec)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 0, store.TransactionCount("TOK"))
	})

	t.Run("OverflowedAmountIsDiscarded", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		rec := base
		rec.FromTopic = utils.PadAddress(counterparty)
		rec.ToTopic = utils.PadAddress(testAddress)
		rec.Amount = strings.Repeat("9", 51)
		changed, err := recon.Reconcile(rec)
		assert.ErrorIs(t, err, entity.ErrCorruptRecord)
		assert.False(t, changed)
		assert.Equal(t, 0, store.TransactionCount("TOK"))
	})

	t.Run("FiftyDigitAmountIsKept", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		rec := base
		rec.FromTopic = utils.PadAddress(counterparty)
		rec.ToTopic = utils.PadAddress(testAddress)
		rec.Amount = strings.Repeat("9", 50)
		changed, err := recon.Reconcile(rec)
		require.NoError(t, err)
		assert.True(t, changed)
	})
}

func TestReconcilePooledEntry(t *testing.T) {
	t.Run("OutgoingByFirstInput", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		changed, err := recon.Reconcile(PooledEntry{
			Hash:           "0xee",
			Time:           1700002000,
			InputAddresses: []string{testAddress, counterparty},
			Amount:         "1000",
			Fee:            "50",
		})
		require.NoError(t, err)
		require.True(t, changed)

		tx := store.Transactions(testPrimary, 0, 0)[0]
		assert.Equal(t, "-1050", tx.NativeAmount)
		assert.Equal(t, "50", tx.NetworkFee)
		assert.Equal(t, int64(0), tx.BlockHeight)
	})

	t.Run("IncomingWhenNotFirstInput", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		changed, err := recon.Reconcile(PooledEntry{
			Hash:           "0xff",
			Time:           1700002100,
			InputAddresses: []string{counterparty},
			Amount:         "1000",
			Fee:            "50",
		})
		require.NoError(t, err)
		require.True(t, changed)

		tx := store.Transactions(testPrimary, 0, 0)[0]
		assert.Equal(t, "1000", tx.NativeAmount)
		assert.Equal(t, []string{testAddress}, tx.OurReceiveAddresses)
	})

	t.Run("NeverOverwritesExistingRecord", func(t *testing.T) {
		store := newTestStore()
		recon := newTestReconciler(store)

		// Confirmed form arrives first, then the stale pool view.
		changed, err := recon.Reconcile(PrimaryTransfer{
			Hash: "0xee", From: testAddress, To: counterparty,
			BlockHeight: 300, Timestamp: 1700002000,
			Amount: "1000", GasUsed: "21000", GasPrice: "1",
		})
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = recon.Reconcile(PooledEntry{
			Hash:           "0xee",
			Time:           1700002000,
			InputAddresses: []string{testAddress},
			Amount:         "1000",
			Fee:            "50",
		})
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, int64(300), store.Transactions(testPrimary, 0, 0)[0].BlockHeight)
	})
}
