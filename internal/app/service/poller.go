package service

import (
	"context"
	stdjson "encoding/json"
	"fmt"
	"sync"
	"time"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// endBlock is the open upper bound of a history scan.
const endBlock = 999999999

// Changed-transaction notifications are flushed every this many reconciled
// records so the host sees incremental progress on long scans.
const reconcileBatchSize = 10

// PollerConfig holds the sync cadence.
type PollerConfig struct {
	BaseURL             string
	BlockHeightInterval time.Duration
	AddressInterval     time.Duration
	NetworkFeesInterval time.Duration
	SaveInterval        time.Duration
	LookbackBlocks      int64
	LedgerPath          string
	// CheckUnconfirmed additionally scans the transaction pool. Pool records
	// are experimental and insert-only; off by default.
	CheckUnconfirmed bool
}

// Poller supervises the four repeating sync tasks: block-height refresh,
// address/balance/transaction refresh, fee-table refresh and ledger
// persistence. Each task logs and swallows its own failures and reschedules
// itself only while the poller is on. Stopping is cooperative: in-flight
// runs finish, future reschedules are suppressed.
type Poller struct {
	cfg       PollerConfig
	fetcher   port.DataFetcher
	store     *LedgerStore
	recon     *Reconciler
	progress  *ProgressTracker
	tokens    *TokenRegistry
	callbacks port.EngineCallbacks
	blob      port.BlobStore
	log       *zap.Logger

	mu     sync.Mutex
	on     bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller builds a poller over the given collaborators.
func NewPoller(cfg PollerConfig, fetcher port.DataFetcher, store *LedgerStore, recon *Reconciler,
	progress *ProgressTracker, tokens *TokenRegistry, callbacks port.EngineCallbacks,
	blob port.BlobStore, log *zap.Logger) *Poller {
	return &Poller{
		cfg:       cfg,
		fetcher:   fetcher,
		store:     store,
		recon:     recon,
		progress:  progress,
		tokens:    tokens,
		callbacks: callbacks,
		blob:      blob,
		log:       log.Named("Poller"),
	}
}

// Start performs one synchronous priming pass (current balances and
// transactions for every enabled asset) and then schedules the repeating
// tasks. Idempotent while running.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.on {
		p.mu.Unlock()
		return
	}
	p.on = true
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	p.progress.Reset()
	p.primeCallbacks()

	p.loop(ctx, "blockheight", p.cfg.BlockHeightInterval, p.checkBlockHeight)
	p.loop(ctx, "addresses", p.cfg.AddressInterval, p.checkAddresses)
	p.loop(ctx, "networkfees", p.cfg.NetworkFeesInterval, p.checkNetworkFees)
	p.loop(ctx, "save", p.cfg.SaveInterval, p.saveLedger)
	p.log.Info("Poller started", zap.String("address", p.store.Address()))
}

// Stop suppresses future reschedules and waits for in-flight runs to finish.
// Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.on {
		p.mu.Unlock()
		return
	}
	p.on = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.log.Info("Poller stopped")
}

// Running reports whether the poller is on.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

func (p *Poller) loop(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			fn(ctx)
			metrics.PollCycles.WithLabelValues(name).Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()
}

// primeCallbacks emits the current view for every enabled asset so the host
// is consistent before the first fetch completes.
func (p *Poller) primeCallbacks() {
	for _, code := range p.store.EnabledTokens() {
		p.callbacks.OnTransactionsChanged(p.store.Transactions(code, 0, 0))
		p.callbacks.OnBalanceChanged(code, p.store.Balance(code))
	}
}

func (p *Poller) url(format string, args ...any) string {
	return p.cfg.BaseURL + "/" + fmt.Sprintf(format, args...)
}

type blockHeightResponse struct {
	BlockHeight int64 `json:"block_height"`
}

func (p *Poller) checkBlockHeight(ctx context.Context) {
	var res blockHeightResponse
	if err := p.fetcher.FetchJSON(ctx, p.url("blockheight"), &res); err != nil {
		metrics.FetchFailures.WithLabelValues("blockheight").Inc()
		p.log.Warn("Error fetching block height", zap.Error(err))
		return
	}
	if res.BlockHeight <= 0 {
		return
	}
	if p.store.SetBlockHeight(res.BlockHeight) {
		p.log.Debug("Block height changed", zap.Int64("height", res.BlockHeight))
		p.callbacks.OnBlockHeightChanged(res.BlockHeight)
	}
}

type balanceResponse struct {
	Balance stdjson.Number `json:"balance"`
}

type primaryTxRecord struct {
	BlockHeight int64          `json:"block_height"`
	Timestamp   int64          `json:"timestamp"`
	Hash        string         `json:"hash"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Amount      stdjson.Number `json:"amount"`
	GasUsed     stdjson.Number `json:"gas_used"`
	GasPrice    stdjson.Number `json:"gas_price"`
}

type transactionsResponse struct {
	Transactions []primaryTxRecord `json:"transactions"`
}

type tokenLogRecord struct {
	TransactionHash string         `json:"transaction_hash"`
	BlockHeight     int64          `json:"block_height"`
	Timestamp       int64          `json:"timestamp"`
	TopicFrom       string         `json:"topic_from"`
	TopicTo         string         `json:"topic_to"`
	Amount          stdjson.Number `json:"amount"`
	GasUsed         stdjson.Number `json:"gas_used"`
	GasPrice        stdjson.Number `json:"gas_price"`
}

type tokenLogsResponse struct {
	Logs []tokenLogRecord `json:"logs"`
}

type pooledTxRecord struct {
	Hash           string         `json:"hash"`
	Time           int64          `json:"time"`
	InputAddresses []string       `json:"input_addresses"`
	Amount         stdjson.Number `json:"amount"`
	Fee            stdjson.Number `json:"fee"`
}

type poolResponse struct {
	Transactions []pooledTxRecord `json:"transactions"`
}

// checkAddresses fans out one balance fetch per enabled asset plus the
// transaction-history fetch (and one log scan per enabled token), waits for
// all of them to settle, then reports aggregate progress. A single fetch's
// failure never cancels the others.
func (p *Poller) checkAddresses(ctx context.Context) {
	address := p.store.Address()
	enabled := p.store.EnabledTokens()
	active := p.activeAssets(enabled)

	g, gctx := errgroup.WithContext(ctx)
	for _, code := range enabled {
		code := code
		if code == p.store.PrimaryAsset() {
			g.Go(func() error {
				p.checkBalance(gctx, code, p.url("balance/%s", address))
				return nil
			})
			continue
		}
		info, ok := p.tokens.Resolve(code)
		if !ok {
			continue
		}
		g.Go(func() error {
			p.checkBalance(gctx, code, p.url("tokenbalance/%s/%s", info.ContractAddress, address))
			return nil
		})
		g.Go(func() error {
			p.scanTokenLogs(gctx, code, info.ContractAddress, active)
			return nil
		})
	}
	g.Go(func() error {
		p.checkTransactions(gctx, active)
		return nil
	})
	if p.cfg.CheckUnconfirmed {
		g.Go(func() error {
			p.checkPool(gctx)
			return nil
		})
	}
	_ = g.Wait()

	p.progress.Update(active)
	p.flushChanged()
}

// activeAssets filters the enabled set down to assets that can actually be
// scanned: the primary asset plus tokens with a known descriptor.
func (p *Poller) activeAssets(enabled []string) []string {
	active := make([]string, 0, len(enabled))
	for _, code := range enabled {
		if code == p.store.PrimaryAsset() {
			active = append(active, code)
			continue
		}
		if _, ok := p.tokens.Resolve(code); ok {
			active = append(active, code)
		}
	}
	return active
}

func (p *Poller) checkBalance(ctx context.Context, assetCode, url string) {
	var res balanceResponse
	if err := p.fetcher.FetchJSON(ctx, url, &res); err != nil {
		metrics.FetchFailures.WithLabelValues("balance").Inc()
		p.log.Warn("Error fetching balance", zap.String("asset", assetCode), zap.Error(err))
		return
	}
	balance := res.Balance.String()
	if balance == "" {
		return
	}
	if p.store.SetBalance(assetCode, balance) {
		p.log.Debug("Balance changed", zap.String("asset", assetCode), zap.String("balance", balance))
		p.callbacks.OnBalanceChanged(assetCode, balance)
	}
}

// startBlock bounds the history re-scan to the lookback window below the
// watermark instead of the full chain history.
func (p *Poller) startBlock() int64 {
	watermark := p.store.LastAddressQueryHeight()
	if watermark > p.cfg.LookbackBlocks {
		return watermark - p.cfg.LookbackBlocks
	}
	return 0
}

func (p *Poller) checkTransactions(ctx context.Context, active []string) {
	primary := p.store.PrimaryAsset()
	url := p.url("transactions/%s/from/%d/to/%d", p.store.Address(), p.startBlock(), endBlock)

	var res transactionsResponse
	if err := p.fetcher.FetchJSON(ctx, url, &res); err != nil {
		metrics.FetchFailures.WithLabelValues("transactions").Inc()
		p.log.Warn("Error fetching transactions", zap.Error(err))
		return
	}
	p.log.Debug("Fetched transactions", zap.Int("count", len(res.Transactions)))

	for i, rec := range res.Transactions {
		_, _ = p.recon.Reconcile(PrimaryTransfer{
			Hash:        rec.Hash,
			From:        rec.From,
			To:          rec.To,
			BlockHeight: rec.BlockHeight,
			Timestamp:   rec.Timestamp,
			Amount:      rec.Amount.String(),
			GasUsed:     rec.GasUsed.String(),
			GasPrice:    rec.GasPrice.String(),
		})
		p.progress.SetRatio(primary, float64(i+1)/float64(len(res.Transactions)))
		if i%reconcileBatchSize == 0 {
			p.progress.Update(active)
			p.flushChanged()
		}
	}
	if len(res.Transactions) == 0 {
		p.progress.SetRatio(primary, 1)
	}
}

func (p *Poller) scanTokenLogs(ctx context.Context, assetCode, contract string, active []string) {
	url := p.url("tokenlogs/%s/%s/from/%d/to/%d", contract, p.store.Address(), p.startBlock(), endBlock)

	var res tokenLogsResponse
	if err := p.fetcher.FetchJSON(ctx, url, &res); err != nil {
		metrics.FetchFailures.WithLabelValues("tokenlogs").Inc()
		p.log.Warn("Error fetching token logs", zap.String("asset", assetCode), zap.Error(err))
		return
	}

	for i, lg := range res.Logs {
		_, _ = p.recon.Reconcile(TokenLogEvent{
			AssetCode:   assetCode,
			Hash:        lg.TransactionHash,
			BlockHeight: lg.BlockHeight,
			Timestamp:   lg.Timestamp,
			FromTopic:   lg.TopicFrom,
			ToTopic:     lg.TopicTo,
			Amount:      lg.Amount.String(),
			GasUsed:     lg.GasUsed.String(),
			GasPrice:    lg.GasPrice.String(),
		})
		p.progress.SetRatio(assetCode, float64(i+1)/float64(len(res.Logs)))
		if i%reconcileBatchSize == 0 {
			p.progress.Update(active)
			p.flushChanged()
		}
	}
	if len(res.Logs) == 0 {
		p.progress.SetRatio(assetCode, 1)
	}
}

func (p *Poller) checkPool(ctx context.Context) {
	var res poolResponse
	if err := p.fetcher.FetchJSON(ctx, p.url("pool/%s", p.store.Address()), &res); err != nil {
		metrics.FetchFailures.WithLabelValues("pool").Inc()
		p.log.Warn("Error fetching transaction pool", zap.Error(err))
		return
	}
	for _, rec := range res.Transactions {
		_, _ = p.recon.Reconcile(PooledEntry{
			Hash:           rec.Hash,
			Time:           rec.Time,
			InputAddresses: rec.InputAddresses,
			Amount:         rec.Amount.String(),
			Fee:            rec.Fee.String(),
		})
	}
}

func (p *Poller) flushChanged() {
	if changed := p.store.DrainChanged(); len(changed) > 0 {
		p.callbacks.OnTransactionsChanged(changed)
	}
}

func (p *Poller) checkNetworkFees(ctx context.Context) {
	var table entity.FeeTable
	if err := p.fetcher.FetchJSON(ctx, p.url("networkfees"), &table); err != nil {
		metrics.FetchFailures.WithLabelValues("networkfees").Inc()
		p.log.Warn("Error fetching network fees", zap.Error(err))
		return
	}
	if !table.Validate() {
		p.log.Warn("Fetched invalid network fees, keeping current table")
		return
	}
	p.store.SetNetworkFees(table)
	p.log.Debug("Network fees refreshed")
}

// saveLedger flushes the ledger when dirty. A failed write re-marks dirty so
// the next cycle retries.
func (p *Poller) saveLedger(ctx context.Context) {
	if !p.store.Dirty() {
		return
	}
	text, err := p.store.Encode()
	if err != nil {
		p.log.Error("Error serializing ledger", zap.Error(err))
		return
	}
	if err := p.blob.WriteText(p.cfg.LedgerPath, text); err != nil {
		p.store.MarkDirty()
		p.log.Error("Error saving ledger", zap.Error(err))
		return
	}
	metrics.LedgerFlushes.Inc()
	p.log.Debug("Ledger saved")
}
