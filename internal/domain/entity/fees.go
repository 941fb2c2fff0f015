package entity

// Fee option names accepted in a spend request.
const (
	FeeOptionLow      = "low"
	FeeOptionStandard = "standard"
	FeeOptionHigh     = "high"
	FeeOptionCustom   = "custom"
)

// DefaultFeeKey is the fee-table entry used when no per-destination override
// exists.
const DefaultFeeKey = "default"

// GasLimits is the gas-limit table keyed by transaction class.
type GasLimits struct {
	RegularTransaction string `json:"regularTransaction" yaml:"regularTransaction"`
	TokenTransaction   string `json:"tokenTransaction" yaml:"tokenTransaction"`
}

// GasPrices holds the tiered gas-price table. StandardFeeLowAmount and
// StandardFeeHighAmount are the native-amount thresholds that select between
// the two standard tiers; amounts in between interpolate linearly.
type GasPrices struct {
	LowFee                string `json:"lowFee" yaml:"lowFee"`
	StandardFeeLow        string `json:"standardFeeLow" yaml:"standardFeeLow"`
	StandardFeeHigh       string `json:"standardFeeHigh" yaml:"standardFeeHigh"`
	StandardFeeLowAmount  string `json:"standardFeeLowAmount" yaml:"standardFeeLowAmount"`
	StandardFeeHighAmount string `json:"standardFeeHighAmount" yaml:"standardFeeHighAmount"`
	HighFee               string `json:"highFee" yaml:"highFee"`
}

// FeeSchedule is one fee-table entry. GasPrice may be nil for entries that
// only override gas limits.
type FeeSchedule struct {
	GasLimit GasLimits  `json:"gasLimit" yaml:"gasLimit"`
	GasPrice *GasPrices `json:"gasPrice,omitempty" yaml:"gasPrice,omitempty"`
}

// FeeTable maps DefaultFeeKey, and optionally normalized destination
// addresses, to fee schedules.
type FeeTable map[string]FeeSchedule

// DefaultFeeTable returns the compiled-in schedule used until the first
// successful fee-table refresh.
func DefaultFeeTable() FeeTable {
	return FeeTable{
		DefaultFeeKey: {
			GasLimit: GasLimits{
				RegularTransaction: "21000",
				TokenTransaction:   "37123",
			},
			GasPrice: &GasPrices{
				LowFee:                "1000000001",
				StandardFeeLow:        "40000000001",
				StandardFeeHigh:       "300000000001",
				StandardFeeLowAmount:  "100000000000000000",
				StandardFeeHighAmount: "10000000000000000000",
				HighFee:               "40000000001",
			},
		},
	}
}

// Validate reports whether the table is usable: it must carry a default entry
// and every entry needs non-empty gas limits.
func (t FeeTable) Validate() bool {
	def, ok := t[DefaultFeeKey]
	if !ok {
		return false
	}
	if def.GasPrice == nil {
		return false
	}
	for _, entry := range t {
		if entry.GasLimit.RegularTransaction == "" || entry.GasLimit.TokenTransaction == "" {
			return false
		}
	}
	return true
}
