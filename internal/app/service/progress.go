package service

import (
	"sync"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/pkg/metrics"

	"go.uber.org/zap"
)

// ProgressTracker aggregates per-asset scan completion ratios into the single
// addresses-checked fraction reported to the host. Each active asset
// contributes an equal share. The transition to fully-checked happens exactly
// once per scan cycle and records the block height as the new re-scan
// watermark.
type ProgressTracker struct {
	mu        sync.Mutex
	store     *LedgerStore
	callbacks port.EngineCallbacks
	log       *zap.Logger
	ratios    map[string]float64
	checked   bool
	last      float64
}

// NewProgressTracker builds a tracker in the "checking" state.
func NewProgressTracker(store *LedgerStore, callbacks port.EngineCallbacks, log *zap.Logger) *ProgressTracker {
	return &ProgressTracker{
		store:     store,
		callbacks: callbacks,
		log:       log.Named("Progress"),
		ratios:    make(map[string]float64),
	}
}

// Reset starts a new scan cycle. Called on engine start and resync.
func (p *ProgressTracker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ratios = make(map[string]float64)
	p.checked = false
	p.last = 0
}

// Fraction returns the last reported addresses-checked fraction.
func (p *ProgressTracker) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// SetRatio records an asset's completion ratio in [0,1].
func (p *ProgressTracker) SetRatio(assetCode string, ratio float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	p.ratios[assetCode] = ratio
}

// Update recomputes the aggregate fraction over the active assets and raises
// the appropriate notification. Idempotent once fully checked. Zero active
// assets count as already complete.
func (p *ProgressTracker) Update(activeAssets []string) {
	p.mu.Lock()
	if p.checked {
		p.mu.Unlock()
		return
	}

	complete := true
	total := 0.0
	if len(activeAssets) > 0 {
		share := 1.0 / float64(len(activeAssets))
		for _, code := range activeAssets {
			ratio := p.ratios[code]
			total += ratio * share
			if ratio != 1 {
				complete = false
			}
		}
	}

	if complete {
		p.checked = true
		p.last = 1
		p.mu.Unlock()
		p.store.SetLastAddressQueryHeight(p.store.BlockHeight())
		metrics.SyncProgress.Set(1)
		p.callbacks.OnAddressesChecked(1)
		p.log.Info("Addresses fully checked", zap.Int64("watermark", p.store.LastAddressQueryHeight()))
		return
	}

	p.last = total
	p.mu.Unlock()
	metrics.SyncProgress.Set(total)
	p.callbacks.OnAddressesChecked(total)
}
