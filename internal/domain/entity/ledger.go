package entity

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WalletLedger is the durable aggregate for one wallet: everything the engine
// knows about the account between syncs. Balances and per-asset histories are
// sparse; an absent key means zero balance / empty history.
type WalletLedger struct {
	BlockHeight            int64                     `json:"blockHeight"`
	LastAddressQueryHeight int64                     `json:"lastAddressQueryHeight"`
	NextNonce              string                    `json:"nextNonce"`
	Address                string                    `json:"address"`
	TotalBalances          map[string]string         `json:"totalBalances"`
	EnabledTokens          []string                  `json:"enabledTokens"`
	TransactionsByAsset    map[string][]*Transaction `json:"transactionsByAsset"`
	NetworkFees            FeeTable                  `json:"networkFees"`
}

// NewWalletLedger builds an empty ledger for the given address. EnabledTokens
// always starts with the primary asset code.
func NewWalletLedger(primaryAsset, address string) *WalletLedger {
	return &WalletLedger{
		NextNonce:           "0",
		Address:             address,
		TotalBalances:       make(map[string]string),
		EnabledTokens:       []string{primaryAsset},
		TransactionsByAsset: make(map[string][]*Transaction),
		NetworkFees:         DefaultFeeTable(),
	}
}

// ParseWalletLedger restores a ledger from its serialized form, falling back
// to defaults for any missing section. A completely unreadable document
// yields a fresh ledger rather than an error; everything except the nonce is
// re-derivable from the remote ledger.
func ParseWalletLedger(text, primaryAsset, address string) *WalletLedger {
	ledger := NewWalletLedger(primaryAsset, address)
	if text == "" {
		return ledger
	}
	var stored WalletLedger
	if err := json.UnmarshalFromString(text, &stored); err != nil {
		return ledger
	}
	ledger.BlockHeight = stored.BlockHeight
	ledger.LastAddressQueryHeight = stored.LastAddressQueryHeight
	if stored.NextNonce != "" {
		ledger.NextNonce = stored.NextNonce
	}
	if stored.Address != "" {
		ledger.Address = stored.Address
	}
	if stored.TotalBalances != nil {
		ledger.TotalBalances = stored.TotalBalances
	}
	if len(stored.EnabledTokens) > 0 {
		ledger.EnabledTokens = stored.EnabledTokens
	}
	if stored.TransactionsByAsset != nil {
		ledger.TransactionsByAsset = stored.TransactionsByAsset
	}
	if stored.NetworkFees != nil {
		ledger.NetworkFees = stored.NetworkFees
	}
	ledger.ensurePrimaryEnabled(primaryAsset)
	return ledger
}

func (l *WalletLedger) ensurePrimaryEnabled(primaryAsset string) {
	for _, code := range l.EnabledTokens {
		if code == primaryAsset {
			return
		}
	}
	l.EnabledTokens = append([]string{primaryAsset}, l.EnabledTokens...)
}

// Encode serializes the ledger for the blob store.
func (l *WalletLedger) Encode() (string, error) {
	return json.MarshalToString(l)
}
