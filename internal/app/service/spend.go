package service

import (
	"fmt"
	"strings"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"
)

// SpendBuilder validates a spend request and produces an unsigned transaction
// draft over a snapshot of the current balances and fee table. It never
// mutates the ledger.
type SpendBuilder struct {
	store     *LedgerStore
	tokens    *TokenRegistry
	feePolicy port.FeePolicy
}

// NewSpendBuilder builds a spend builder.
func NewSpendBuilder(store *LedgerStore, tokens *TokenRegistry, feePolicy port.FeePolicy) *SpendBuilder {
	return &SpendBuilder{store: store, tokens: tokens, feePolicy: feePolicy}
}

// Build turns a spend request into an unsigned draft: negative signed amount,
// zero id/date/block height, and the parent-asset fee set for token spends.
func (b *SpendBuilder) Build(req *entity.SpendRequest) (*entity.Transaction, error) {
	if req == nil || len(req.Targets) != 1 {
		return nil, fmt.Errorf("%w: exactly one destination required", entity.ErrInvalidSpendRequest)
	}
	target := req.Targets[0]
	if target.PublicAddress == "" {
		return nil, fmt.Errorf("%w: no destination address", entity.ErrInvalidSpendRequest)
	}
	amount := target.NativeAmount
	if amount == "" {
		return nil, fmt.Errorf("%w: no amount specified", entity.ErrInvalidSpendRequest)
	}
	if v, err := utils.ParseBig(amount); err != nil || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: bad amount %q", entity.ErrInvalidSpendRequest, amount)
	}

	primary := b.store.PrimaryAsset()
	assetCode := req.AssetCode
	if assetCode == "" {
		assetCode = primary
	}

	var tokenInfo entity.TokenInfo
	if assetCode != primary {
		if !b.assetEnabled(assetCode) {
			return nil, entity.ErrUnsupportedAsset
		}
		info, ok := b.tokens.Resolve(assetCode)
		if !ok || info.ContractAddress == "" {
			return nil, entity.ErrUnsupportedAsset
		}
		tokenInfo = info
	}

	resolved := *req
	resolved.AssetCode = assetCode
	fee, err := b.feePolicy.CalcMiningFee(&resolved, b.store.NetworkFees(), primary)
	if err != nil {
		return nil, err
	}

	networkFee := utils.MulDecimal(fee.GasPrice, fee.GasLimit)
	primaryBalance := b.store.Balance(primary)

	var nativeAmount, displayedFee, parentFee string
	if assetCode == primary {
		total := utils.AddDecimal(networkFee, amount)
		if utils.CmpDecimal(total, primaryBalance) > 0 {
			return nil, entity.ErrInsufficientFunds
		}
		nativeAmount = utils.NegDecimal(total)
		displayedFee = networkFee
	} else {
		// The real cost of a token transfer is paid in the primary asset;
		// the token-denominated transaction reports a zero fee.
		parentFee = networkFee
		if utils.CmpDecimal(networkFee, primaryBalance) > 0 {
			return nil, entity.ErrInsufficientFeeFunds
		}
		if utils.CmpDecimal(amount, b.store.Balance(assetCode)) > 0 {
			return nil, entity.ErrInsufficientFunds
		}
		nativeAmount = utils.NegDecimal(amount)
		displayedFee = "0"
	}

	aux := entity.AuxParams{
		From:              []string{strings.ToLower(b.store.Address())},
		Gas:               fee.GasLimit,
		GasPrice:          fee.GasPrice,
		GasUsed:           "0",
		CumulativeGasUsed: "0",
	}
	if assetCode == primary {
		aux.To = []string{target.PublicAddress}
	} else {
		aux.To = []string{tokenInfo.ContractAddress}
		aux.TokenRecipientAddress = target.PublicAddress
	}

	return &entity.Transaction{
		AssetCode:           assetCode,
		NativeAmount:        nativeAmount,
		NetworkFee:          displayedFee,
		ParentNetworkFee:    parentFee,
		OurReceiveAddresses: []string{},
		Aux:                 aux,
	}, nil
}

func (b *SpendBuilder) assetEnabled(assetCode string) bool {
	for _, code := range b.store.EnabledTokens() {
		if code == assetCode {
			return true
		}
	}
	return false
}
