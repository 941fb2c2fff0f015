package entity

// TokenInfo describes a tracked secondary asset: its short code, display
// name, native-unit multiplier (decimal string) and the 0x-prefixed contract
// address the transfers go through. The primary asset has no TokenInfo.
type TokenInfo struct {
	AssetCode       string `json:"assetCode" yaml:"assetCode"`
	Name            string `json:"name" yaml:"name"`
	Multiplier      string `json:"multiplier" yaml:"multiplier"`
	ContractAddress string `json:"contractAddress" yaml:"contractAddress"`
}
