package service

import (
	"strings"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/metrics"
	"wallet_engine/internal/pkg/utils"

	"go.uber.org/zap"
)

// Token-log amount fields longer than this are overflowed/corrupt and the
// record is discarded rather than stored.
const maxTokenAmountDigits = 50

// RemoteTxRecord is the tagged union of the three remote transaction shapes
// the ledger API serves. The reconciler matches on the concrete type.
type RemoteTxRecord interface {
	remoteTxRecord()
}

// PrimaryTransfer is a confirmed primary-asset value transfer.
type PrimaryTransfer struct {
	Hash        string
	From        string
	To          string
	BlockHeight int64
	Timestamp   int64
	Amount      string
	GasUsed     string
	GasPrice    string
}

func (PrimaryTransfer) remoteTxRecord() {}

// TokenLogEvent is a token-transfer log event. FromTopic and ToTopic are the
// zero-padded 64-char address fields of the log.
type TokenLogEvent struct {
	AssetCode   string
	Hash        string
	BlockHeight int64
	Timestamp   int64
	FromTopic   string
	ToTopic     string
	Amount      string
	GasUsed     string
	GasPrice    string
}

func (TokenLogEvent) remoteTxRecord() {}

// PooledEntry is an unconfirmed transaction-pool entry. Amount and Fee come
// straight from the pool record.
type PooledEntry struct {
	Hash           string
	Time           int64
	InputAddresses []string
	Amount         string
	Fee            string
}

func (PooledEntry) remoteTxRecord() {}

// Reconciler translates remote transaction records into canonical
// Transactions and hands them to the store's idempotent upsert.
type Reconciler struct {
	store *LedgerStore
	log   *zap.Logger
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(store *LedgerStore, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, log: log.Named("Reconciler")}
}

// Reconcile merges one remote record into the ledger, reporting whether the
// ledger changed. A corrupt record yields ErrCorruptRecord and no mutation.
func (r *Reconciler) Reconcile(rec RemoteTxRecord) (bool, error) {
	var changed bool
	var err error
	switch v := rec.(type) {
	case PrimaryTransfer:
		changed = r.reconcilePrimary(v)
	case TokenLogEvent:
		changed, err = r.reconcileTokenLog(v)
	case PooledEntry:
		changed = r.reconcilePooled(v)
	}
	if changed {
		metrics.ReconciledTransactions.Inc()
	}
	return changed, err
}

func (r *Reconciler) reconcilePrimary(rec PrimaryTransfer) bool {
	wallet := utils.NormalizeAddress(r.store.Address())
	from := strings.ToLower(rec.From)
	to := strings.ToLower(rec.To)
	fee := utils.MulDecimal(rec.GasPrice, rec.GasUsed)

	var amount string
	var receiveAddresses []string
	if utils.NormalizeAddress(rec.From) == wallet {
		// Spends include the network fee in the transaction amount.
		amount = utils.NegDecimal(utils.AddDecimal(rec.Amount, fee))
	} else {
		amount = utils.AddDecimal("0", rec.Amount)
		receiveAddresses = []string{strings.ToLower(r.store.Address())}
	}

	tx := &entity.Transaction{
		ID:                  rec.Hash,
		Date:                rec.Timestamp,
		AssetCode:           r.store.PrimaryAsset(),
		BlockHeight:         rec.BlockHeight,
		NativeAmount:        amount,
		NetworkFee:          fee,
		OurReceiveAddresses: receiveAddresses,
		SignedPayload:       entity.SignedPayloadNone,
		Aux: entity.AuxParams{
			From:              []string{from},
			To:                []string{to},
			Gas:               rec.GasUsed,
			GasPrice:          rec.GasPrice,
			GasUsed:           rec.GasUsed,
			CumulativeGasUsed: rec.GasUsed,
		},
	}
	if r.store.RecordOrUpdateTransaction(tx.AssetCode, tx) {
		r.log.Debug("Reconciled primary transfer", zap.String("txid", rec.Hash), zap.Int64("height", rec.BlockHeight))
		return true
	}
	return false
}

func (r *Reconciler) reconcileTokenLog(rec TokenLogEvent) (bool, error) {
	if len(rec.Amount) > maxTokenAmountDigits {
		r.log.Warn("Discarding token log with overflowed amount",
			zap.String("txid", rec.Hash), zap.Int("digits", len(rec.Amount)))
		return false, entity.ErrCorruptRecord
	}

	padded := utils.PadAddress(r.store.Address())
	fromTopic := utils.NormalizeAddress(rec.FromTopic)
	toTopic := utils.NormalizeAddress(rec.ToTopic)

	var amount string
	var receiveAddresses []string
	switch {
	case fromTopic == padded:
		// The token amount excludes the fee; the fee is charged to the
		// primary asset and tracked there.
		amount = utils.NegDecimal(rec.Amount)
	case toTopic == padded:
		amount = utils.AddDecimal("0", rec.Amount)
		receiveAddresses = []string{strings.ToLower(r.store.Address())}
	default:
		// Log scan returned an event that does not involve this wallet.
		return false, nil
	}

	tx := &entity.Transaction{
		ID:                  rec.Hash,
		Date:                rec.Timestamp,
		AssetCode:           rec.AssetCode,
		BlockHeight:         rec.BlockHeight,
		NativeAmount:        amount,
		NetworkFee:          "0",
		OurReceiveAddresses: receiveAddresses,
		SignedPayload:       entity.SignedPayloadNone,
		Aux: entity.AuxParams{
			From:              []string{unpadTopicAddress(rec.FromTopic)},
			To:                []string{unpadTopicAddress(rec.ToTopic)},
			Gas:               rec.GasUsed,
			GasPrice:          rec.GasPrice,
			GasUsed:           rec.GasUsed,
			CumulativeGasUsed: rec.GasUsed,
		},
	}
	if r.store.RecordOrUpdateTransaction(rec.AssetCode, tx) {
		r.log.Debug("Reconciled token transfer", zap.String("txid", rec.Hash), zap.String("asset", rec.AssetCode))
		return true, nil
	}
	return false, nil
}

// reconcilePooled records unconfirmed pool entries insert-only: an id already
// in the ledger is left untouched until the confirmed form arrives.
func (r *Reconciler) reconcilePooled(rec PooledEntry) bool {
	primary := r.store.PrimaryAsset()
	if r.store.HasTransaction(primary, rec.Hash) {
		return false
	}

	wallet := utils.NormalizeAddress(r.store.Address())
	outgoing := len(rec.InputAddresses) > 0 && utils.NormalizeAddress(rec.InputAddresses[0]) == wallet

	var amount string
	var receiveAddresses []string
	if outgoing {
		amount = utils.NegDecimal(utils.AddDecimal(rec.Amount, rec.Fee))
	} else {
		amount = utils.AddDecimal("0", rec.Amount)
		receiveAddresses = []string{strings.ToLower(r.store.Address())}
	}

	from := make([]string, 0, len(rec.InputAddresses))
	for _, addr := range rec.InputAddresses {
		from = append(from, strings.ToLower(addr))
	}

	tx := &entity.Transaction{
		ID:                  rec.Hash,
		Date:                rec.Time,
		AssetCode:           primary,
		BlockHeight:         0,
		NativeAmount:        amount,
		NetworkFee:          rec.Fee,
		OurReceiveAddresses: receiveAddresses,
		SignedPayload:       entity.SignedPayloadNone,
		Aux: entity.AuxParams{
			From: from,
			To:   []string{},
		},
	}
	if r.store.RecordOrUpdateTransaction(primary, tx) {
		r.log.Debug("Reconciled pooled transaction", zap.String("txid", rec.Hash))
		return true
	}
	return false
}

func unpadTopicAddress(topic string) string {
	norm := utils.NormalizeAddress(topic)
	if len(norm) > 40 {
		return norm[len(norm)-40:]
	}
	return norm
}
