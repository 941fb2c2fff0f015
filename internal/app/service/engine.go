package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/config"
	"wallet_engine/internal/domain/entity"

	"go.uber.org/zap"
)

// Persisted ledger layout: <walletFolder>/<engineFolder>/<ledgerFile>.
const (
	engineFolder = "txenginefolder"
	ledgerFile   = "wallet_ledger.json"
)

// Engine is the wallet synchronization engine for one address: it owns the
// ledger store, the sync poller and the spend/broadcast pipeline, and is the
// only surface the host application talks to.
type Engine struct {
	store       *LedgerStore
	tokens      *TokenRegistry
	progress    *ProgressTracker
	poller      *Poller
	spender     *SpendBuilder
	broadcaster *Broadcaster
	signer      port.TransactionSigner
	blob        port.BlobStore
	callbacks   port.EngineCallbacks
	ledgerPath  string
	log         *zap.Logger
}

// NewEngine restores the ledger from durable storage (or starts from
// defaults) and wires the engine components together. It does not start
// polling; call StartEngine.
func NewEngine(cfg *config.Config, fetcher port.DataFetcher, signer port.TransactionSigner,
	blob port.BlobStore, feePolicy port.FeePolicy, callbacks port.EngineCallbacks,
	log *zap.Logger) (*Engine, error) {

	primary := cfg.Wallet.PrimaryAssetCode
	address := strings.ToLower(cfg.Wallet.Address)
	ledgerPath := filepath.Join(cfg.Wallet.DataDir, engineFolder, ledgerFile)

	text, err := blob.ReadText(ledgerPath)
	if err != nil {
		log.Info("No stored ledger, starting from defaults", zap.String("path", ledgerPath))
		text = ""
	}
	ledger := entity.ParseWalletLedger(text, primary, address)
	store := NewLedgerStore(ledger, primary)

	tokens := NewTokenRegistry(cfg.Tokens, time.Duration(cfg.Engine.TokenCacheTTLMinutes)*time.Minute)
	progress := NewProgressTracker(store, callbacks, log)
	recon := NewReconciler(store, log)

	poller := NewPoller(PollerConfig{
		BaseURL:             cfg.API.BaseURL,
		BlockHeightInterval: time.Duration(cfg.Engine.BlockHeightPollMillis) * time.Millisecond,
		AddressInterval:     time.Duration(cfg.Engine.AddressPollMillis) * time.Millisecond,
		NetworkFeesInterval: time.Duration(cfg.Engine.NetworkFeesPollMillis) * time.Millisecond,
		SaveInterval:        time.Duration(cfg.Engine.SavePollMillis) * time.Millisecond,
		LookbackBlocks:      cfg.Engine.LookbackBlocks,
		LedgerPath:          ledgerPath,
	}, fetcher, store, recon, progress, tokens, callbacks, blob, log)

	e := &Engine{
		store:      store,
		tokens:     tokens,
		progress:   progress,
		poller:     poller,
		signer:     signer,
		blob:       blob,
		callbacks:  callbacks,
		ledgerPath: ledgerPath,
		log:        log.Named("Engine"),
	}
	e.spender = NewSpendBuilder(store, tokens, feePolicy)
	e.broadcaster = NewBroadcaster(store, fetcher, signer, cfg.API.BaseURL,
		cfg.Engine.BroadcastMaxAttempts, e.flushLedger, log)

	e.log.Info("Engine created", zap.String("address", address), zap.String("primaryAsset", primary))
	return e, nil
}

// StartEngine begins background synchronization. Idempotent.
func (e *Engine) StartEngine() {
	e.poller.Start()
}

// StopEngine cooperatively stops background synchronization. Idempotent.
func (e *Engine) StopEngine() {
	e.poller.Stop()
}

// Resync tears down the poller, discards every ledger section except the
// enabled tokens, the fee table and the address, persists the fresh ledger
// and restarts polling. This is the only way history is purged.
func (e *Engine) Resync() {
	e.log.Info("Resyncing wallet")
	e.poller.Stop()
	e.store.ResetForResync()
	e.flushLedger()
	e.poller.Start()
}

// GetBalance returns the balance for an asset; empty code means the primary
// asset, and an unobserved asset reports "0".
func (e *Engine) GetBalance(assetCode string) string {
	return e.store.Balance(e.resolveCode(assetCode))
}

// GetTransactionCount returns the history length for an asset.
func (e *Engine) GetTransactionCount(assetCode string) int {
	return e.store.TransactionCount(e.resolveCode(assetCode))
}

// GetTransactions returns a clamped slice of an asset's history, newest
// first. limit <= 0 means "to the end".
func (e *Engine) GetTransactions(assetCode string, startIndex, limit int) []*entity.Transaction {
	return e.store.Transactions(e.resolveCode(assetCode), startIndex, limit)
}

// GetBlockHeight returns the last observed chain height.
func (e *Engine) GetBlockHeight() int64 {
	return e.store.BlockHeight()
}

// GetSyncProgress returns the last reported addresses-checked fraction.
func (e *Engine) GetSyncProgress() float64 {
	return e.progress.Fraction()
}

// GetFreshAddress returns the wallet's single public address.
func (e *Engine) GetFreshAddress() string {
	return e.store.Address()
}

// EnableAssets adds asset codes to the tracked set.
func (e *Engine) EnableAssets(codes []string) {
	for _, code := range codes {
		e.store.EnableToken(code)
	}
}

// DisableAssets removes asset codes from the tracked set; the primary asset
// stays enabled.
func (e *Engine) DisableAssets(codes []string) {
	for _, code := range codes {
		e.store.DisableToken(code)
	}
}

// GetEnabledAssets returns the ordered enabled asset set.
func (e *Engine) GetEnabledAssets() []string {
	return e.store.EnabledTokens()
}

// IsAssetEnabled reports whether an asset is tracked.
func (e *Engine) IsAssetEnabled(assetCode string) bool {
	for _, code := range e.store.EnabledTokens() {
		if code == assetCode {
			return true
		}
	}
	return false
}

// AddCustomToken validates and registers a custom token descriptor and
// enables its asset code. Re-adding an existing custom code replaces it.
func (e *Engine) AddCustomToken(tok entity.TokenInfo) error {
	normalized, err := e.tokens.AddCustom(tok)
	if err != nil {
		return err
	}
	e.store.EnableToken(normalized.AssetCode)
	e.log.Info("Custom token added", zap.String("asset", normalized.AssetCode),
		zap.String("contract", normalized.ContractAddress))
	return nil
}

// BuildSpend validates a spend request and returns an unsigned draft.
func (e *Engine) BuildSpend(req *entity.SpendRequest) (*entity.Transaction, error) {
	return e.spender.Build(req)
}

// SignTransaction signs an unsigned draft at the current next nonce, filling
// in the signed payload, transaction id and date.
func (e *Engine) SignTransaction(tx *entity.Transaction) (*entity.Transaction, error) {
	payload, txid, err := e.signer.Sign(tx, e.store.NextNonce())
	if err != nil {
		return nil, err
	}
	tx.SignedPayload = payload
	tx.ID = txid
	tx.Date = time.Now().Unix()
	return tx, nil
}

// Broadcast submits a signed transaction, recovering from nonce conflicts
// internally. On success the stored next nonce has advanced by one.
func (e *Engine) Broadcast(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	return e.broadcaster.Broadcast(ctx, tx)
}

// SaveTransaction records a locally-built transaction (typically right after
// broadcast) ahead of its confirmation by the sync loop.
func (e *Engine) SaveTransaction(tx *entity.Transaction) {
	e.store.RecordOrUpdateTransaction(tx.AssetCode, tx)
	if changed := e.store.DrainChanged(); len(changed) > 0 {
		e.callbacks.OnTransactionsChanged(changed)
	}
}

// DumpLedger returns the serialized ledger for debugging.
func (e *Engine) DumpLedger() (string, error) {
	return e.store.Dump()
}

func (e *Engine) resolveCode(assetCode string) string {
	if assetCode == "" {
		return e.store.PrimaryAsset()
	}
	return assetCode
}

// flushLedger persists the ledger immediately, outside the save timer. Used
// after every broadcast attempt so the nonce can never be reused across a
// restart.
func (e *Engine) flushLedger() {
	text, err := e.store.Encode()
	if err != nil {
		e.log.Error("Error serializing ledger", zap.Error(err))
		return
	}
	if err := e.blob.WriteText(e.ledgerPath, text); err != nil {
		e.store.MarkDirty()
		e.log.Error("Error flushing ledger", zap.Error(err))
	}
}
