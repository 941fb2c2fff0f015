package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Nonce-conflict patterns in the remote node's error text.
const (
	noncePatternTooLow     = "nonce too low"
	noncePatternValidating = "Error validating transaction"
	noncePatternOrphaned   = "orphaned, missing reference"
)

// Broadcaster submits signed transactions and recovers from server-side
// nonce conflicts: "nonce too low" bumps the stored nonce up, an orphaned
// reference bumps it down, and either case re-signs and resubmits. The retry
// loop is bounded; an oscillating remote converts to a fatal error instead of
// recursing forever.
type Broadcaster struct {
	store        *LedgerStore
	fetcher      port.DataFetcher
	signer       port.TransactionSigner
	baseURL      string
	maxRetries   int
	persistNonce func()
	log          *zap.Logger
}

// NewBroadcaster builds a broadcaster. persistNonce is invoked after every
// nonce adjustment so a crash between broadcast and the periodic flush cannot
// reuse a nonce; it may be nil.
func NewBroadcaster(store *LedgerStore, fetcher port.DataFetcher, signer port.TransactionSigner,
	baseURL string, maxRetries int, persistNonce func(), log *zap.Logger) *Broadcaster {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Broadcaster{
		store:        store,
		fetcher:      fetcher,
		signer:       signer,
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxRetries:   maxRetries,
		persistNonce: persistNonce,
		log:          log.Named("Broadcaster"),
	}
}

type broadcastResponse struct {
	Error string `json:"error"`
	Tx    *struct {
		Hash string `json:"hash"`
	} `json:"tx"`
}

// Broadcast submits the signed payload, driving the retry state machine until
// success, a fatal server error, or the retry ceiling.
func (b *Broadcaster) Broadcast(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	retries := 0
	for {
		res, err := b.submit(ctx, tx.SignedPayload)
		if err != nil {
			return nil, err
		}

		if res.Error != "" {
			var delta int64
			switch {
			case strings.Contains(res.Error, noncePatternTooLow):
				delta = 1
			case strings.Contains(res.Error, noncePatternValidating) &&
				strings.Contains(res.Error, noncePatternOrphaned):
				delta = -1
			default:
				return nil, &entity.BroadcastError{Reason: res.Error}
			}

			if retries >= b.maxRetries {
				b.log.Error("Giving up on nonce conflict",
					zap.Int("retries", retries), zap.String("serverError", res.Error))
				return nil, entity.ErrBroadcastRetryExhausted
			}
			retries++
			metrics.BroadcastRetries.Inc()

			nonce := b.store.AdvanceNonce(delta)
			if b.persistNonce != nil {
				b.persistNonce()
			}
			b.log.Warn("Nonce conflict, re-signing",
				zap.Int64("delta", delta), zap.String("nextNonce", nonce))

			// The nonce is part of the signed payload, so every retry is a
			// full re-sign of the same logical transaction.
			payload, txid, err := b.signer.Sign(tx, nonce)
			if err != nil {
				return nil, err
			}
			tx.SignedPayload = payload
			tx.ID = txid
			tx.Date = time.Now().Unix()
			continue
		}

		if res.Tx != nil && res.Tx.Hash != "" {
			b.store.AdvanceNonce(1)
			if b.persistNonce != nil {
				b.persistNonce()
			}
			b.log.Info("Broadcast accepted", zap.String("txid", tx.ID))
			return tx, nil
		}

		return nil, &entity.BroadcastError{Reason: "invalid return value on transaction send"}
	}
}

func (b *Broadcaster) submit(ctx context.Context, signedPayload string) (*broadcastResponse, error) {
	hexTx := strings.TrimPrefix(signedPayload, "0x")
	url := fmt.Sprintf("%s/broadcasttx/%s", b.baseURL, hexTx)
	var res broadcastResponse
	if err := b.fetcher.FetchJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
