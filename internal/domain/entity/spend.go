package entity

// SpendTarget is one destination of a spend request. NativeAmount is a
// decimal string in the spend asset's native units.
type SpendTarget struct {
	PublicAddress string `json:"publicAddress"`
	NativeAmount  string `json:"nativeAmount"`
}

// CustomFee is a caller-supplied fee override used with FeeOptionCustom.
// GasPrice is denominated in gwei, matching what wallet UIs collect.
type CustomFee struct {
	GasLimit string `json:"gasLimit"`
	GasPrice string `json:"gasPrice"`
}

// SpendRequest describes an outgoing payment to be turned into an unsigned
// transaction draft. AssetCode empty means the primary asset.
type SpendRequest struct {
	AssetCode string        `json:"assetCode,omitempty"`
	FeeOption string        `json:"feeOption,omitempty"`
	CustomFee *CustomFee    `json:"customFee,omitempty"`
	Targets   []SpendTarget `json:"targets"`
}

// MiningFee is the (gasLimit, gasPrice) pair computed by a fee policy.
type MiningFee struct {
	GasLimit string `json:"gasLimit"`
	GasPrice string `json:"gasPrice"`
}
