package service

import (
	"fmt"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"
)

const gweiPerWei = "1000000000"

// DefaultFeePolicy implements the standard mining-fee contract: gas limit by
// transaction class from the fee table (with per-destination overrides) and
// gas price by the requested tier, linearly interpolating the standard tier
// between standardFeeLowAmount and standardFeeHighAmount.
type DefaultFeePolicy struct{}

// NewDefaultFeePolicy returns the built-in fee policy.
func NewDefaultFeePolicy() port.FeePolicy {
	return &DefaultFeePolicy{}
}

// CalcMiningFee computes the (gasLimit, gasPrice) pair for a spend request.
func (p *DefaultFeePolicy) CalcMiningFee(req *entity.SpendRequest, fees entity.FeeTable, primaryAsset string) (entity.MiningFee, error) {
	if req == nil || len(req.Targets) == 0 || req.Targets[0].PublicAddress == "" {
		return entity.MiningFee{}, entity.ErrInvalidSpendRequest
	}

	if req.FeeOption == entity.FeeOptionCustom && req.CustomFee != nil {
		gasLimit := req.CustomFee.GasLimit
		gasPrice := utils.MulDecimal(req.CustomFee.GasPrice, gweiPerWei)
		if utils.CmpDecimal(gasLimit, "0") > 0 && utils.CmpDecimal(gasPrice, "0") > 0 {
			return entity.MiningFee{GasLimit: gasLimit, GasPrice: gasPrice}, nil
		}
		return entity.MiningFee{}, fmt.Errorf("%w: custom fee must be positive", entity.ErrInvalidSpendRequest)
	}

	target := utils.NormalizeAddress(req.Targets[0].PublicAddress)
	feeForLimit, ok := fees[entity.DefaultFeeKey]
	if !ok {
		return entity.MiningFee{}, fmt.Errorf("fee table has no default entry")
	}
	feeForPrice := feeForLimit
	if override, ok := fees[target]; ok {
		feeForLimit = override
		if override.GasPrice != nil {
			feeForPrice = override
		}
	}

	tokenSpend := req.AssetCode != "" && req.AssetCode != primaryAsset
	gasLimit := feeForLimit.GasLimit.RegularTransaction
	if tokenSpend {
		gasLimit = feeForLimit.GasLimit.TokenTransaction
	}

	nativeAmount := req.Targets[0].NativeAmount
	if nativeAmount == "" {
		return entity.MiningFee{}, fmt.Errorf("%w: no amount specified", entity.ErrInvalidSpendRequest)
	}
	if _, err := utils.ParseBig(nativeAmount); err != nil {
		return entity.MiningFee{}, fmt.Errorf("%w: bad amount %q", entity.ErrInvalidSpendRequest, nativeAmount)
	}
	if tokenSpend {
		// Estimate the token's relative value against the primary asset at
		// 10% so token amounts land in a sensible fee tier.
		nativeAmount = utils.DivDecimal(nativeAmount, "10")
	}

	prices := feeForPrice.GasPrice
	if prices == nil {
		return entity.MiningFee{}, fmt.Errorf("fee table entry has no gas prices")
	}

	option := req.FeeOption
	if option == "" {
		option = entity.FeeOptionStandard
	}

	var gasPrice string
	switch option {
	case entity.FeeOptionLow:
		gasPrice = prices.LowFee
	case entity.FeeOptionHigh:
		gasPrice = prices.HighFee
	case entity.FeeOptionStandard:
		gasPrice = standardGasPrice(nativeAmount, prices)
	default:
		return entity.MiningFee{}, fmt.Errorf("%w: unknown fee option %q", entity.ErrInvalidSpendRequest, option)
	}

	return entity.MiningFee{GasLimit: gasLimit, GasPrice: gasPrice}, nil
}

// standardGasPrice scales the standard fee by where the spend amount sits
// between standardFeeLowAmount and standardFeeHighAmount.
func standardGasPrice(nativeAmount string, prices *entity.GasPrices) string {
	if utils.CmpDecimal(nativeAmount, prices.StandardFeeHighAmount) >= 0 {
		return prices.StandardFeeHigh
	}
	if utils.CmpDecimal(nativeAmount, prices.StandardFeeLowAmount) <= 0 {
		return prices.StandardFeeLow
	}

	amountRange := utils.SubDecimal(prices.StandardFeeHighAmount, prices.StandardFeeLowAmount)
	feeRange := utils.SubDecimal(prices.StandardFeeHigh, prices.StandardFeeLow)
	aboveLow := utils.SubDecimal(nativeAmount, prices.StandardFeeLowAmount)
	addToLow := utils.DivDecimal(utils.MulDecimal(aboveLow, feeRange), amountRange)
	return utils.AddDecimal(prices.StandardFeeLow, addToLow)
}
