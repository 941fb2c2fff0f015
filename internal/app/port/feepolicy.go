package port

import "wallet_engine/internal/domain/entity"

// FeePolicy is the pluggable fee-estimation strategy. Given a spend request
// and the current fee table it returns the (gasLimit, gasPrice) pair to use.
type FeePolicy interface {
	CalcMiningFee(req *entity.SpendRequest, fees entity.FeeTable, primaryAsset string) (entity.MiningFee, error)
}
