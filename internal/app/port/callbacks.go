package port

import "wallet_engine/internal/domain/entity"

// EngineCallbacks receives change notifications from the engine. Callbacks
// fire on the engine's goroutines and must not block for long.
type EngineCallbacks interface {
	OnBalanceChanged(assetCode string, balance string)
	OnTransactionsChanged(txs []*entity.Transaction)
	OnBlockHeightChanged(height int64)
	// OnAddressesChecked reports scan completion in [0,1]; exactly one call
	// per scan cycle carries 1.
	OnAddressesChecked(progress float64)
}
