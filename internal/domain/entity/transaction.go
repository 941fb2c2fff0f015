package entity

// SignedPayloadNone marks a transaction observed on chain for which we never
// held the signed bytes.
const SignedPayloadNone = "unsigned"

// AuxParams carries the chain-level details of a transaction that do not fit
// the portable Transaction shape: raw address lists, gas accounting, the
// node-reported error code and, for token transfers, the logical recipient
// behind the contract call.
type AuxParams struct {
	From                  []string `json:"from"`
	To                    []string `json:"to"`
	Gas                   string   `json:"gas"`
	GasPrice              string   `json:"gasPrice"`
	GasUsed               string   `json:"gasUsed"`
	CumulativeGasUsed     string   `json:"cumulativeGasUsed"`
	ErrorVal              int      `json:"errorVal"`
	TokenRecipientAddress string   `json:"tokenRecipientAddress,omitempty"`
}

// Transaction is one on-chain or pending event affecting the wallet. Amounts
// are decimal strings in native units; NativeAmount is negative when funds
// leave the wallet and, for the primary asset, already includes the fee.
type Transaction struct {
	ID                  string    `json:"txid"`
	Date                int64     `json:"date"`
	AssetCode           string    `json:"assetCode"`
	BlockHeight         int64     `json:"blockHeight"`
	NativeAmount        string    `json:"nativeAmount"`
	NetworkFee          string    `json:"networkFee"`
	ParentNetworkFee    string    `json:"parentNetworkFee,omitempty"`
	OurReceiveAddresses []string  `json:"ourReceiveAddresses"`
	SignedPayload       string    `json:"signedPayload"`
	Aux                 AuxParams `json:"aux"`
}
