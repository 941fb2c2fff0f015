package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// PollCycles counts completed runs per poller task.
	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_engine_poll_cycles_total",
		Help: "Completed poller task runs, by task.",
	}, []string{"task"})

	// FetchFailures counts remote fetches that were logged and swallowed.
	FetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_engine_fetch_failures_total",
		Help: "Remote fetch failures, by task.",
	}, []string{"task"})

	// ReconciledTransactions counts upserts that actually changed the ledger.
	ReconciledTransactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_engine_reconciled_transactions_total",
		Help: "Transactions inserted or updated by the reconciler.",
	})

	// BroadcastRetries counts nonce-conflict re-sign attempts.
	BroadcastRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_engine_broadcast_retries_total",
		Help: "Broadcast resubmissions caused by nonce conflicts.",
	})

	// SyncProgress is the last reported addresses-checked fraction.
	SyncProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_engine_sync_progress",
		Help: "Addresses-checked completion fraction in [0,1].",
	})

	// LedgerFlushes counts successful persistence writes.
	LedgerFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_engine_ledger_flushes_total",
		Help: "Successful wallet ledger flushes to durable storage.",
	})
)

// MustRegisterMetrics registers all engine collectors with the default
// registry. Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		PollCycles,
		FetchFailures,
		ReconciledTransactions,
		BroadcastRetries,
		SyncProgress,
		LedgerFlushes,
	)
}
