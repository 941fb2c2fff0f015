package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Minimal ERC20 ABI for the transfer call issued on token spends.
const erc20ABI = `[{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// EIP155Signer implements port.TransactionSigner with a local private key.
// The engine core only sees the signed payload and the transaction id.
type EIP155Signer struct {
	priv    *ecdsa.PrivateKey
	chainID *big.Int
}

// NewEIP155Signer parses the hex private key and binds the signer to a chain.
func NewEIP155Signer(privKeyHex string, chainID int64) (*EIP155Signer, error) {
	initParsedERC20ABI()
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &EIP155Signer{priv: priv, chainID: big.NewInt(chainID)}, nil
}

// Address returns the address derived from the signing key.
func (s *EIP155Signer) Address() string {
	return strings.ToLower(crypto.PubkeyToAddress(s.priv.PublicKey).Hex())
}

// Sign serializes and signs the draft at the given nonce. For token spends
// the value rides inside a transfer(to, amount) call against the contract;
// for primary spends the value is the draft amount net of the fee.
func (s *EIP155Signer) Sign(tx *entity.Transaction, nonce string) (string, string, error) {
	if len(tx.Aux.To) == 0 {
		return "", "", fmt.Errorf("draft has no destination")
	}
	nonceVal, err := utils.ParseBig(nonce)
	if err != nil {
		return "", "", fmt.Errorf("invalid nonce %q: %w", nonce, err)
	}
	gasLimit, err := utils.ParseBig(tx.Aux.Gas)
	if err != nil {
		return "", "", fmt.Errorf("invalid gas limit %q: %w", tx.Aux.Gas, err)
	}
	gasPrice, err := utils.ParseBig(tx.Aux.GasPrice)
	if err != nil {
		return "", "", fmt.Errorf("invalid gas price %q: %w", tx.Aux.GasPrice, err)
	}

	to := common.HexToAddress(tx.Aux.To[0])
	var value *big.Int
	var data []byte

	if tx.Aux.TokenRecipientAddress == "" {
		// The draft amount is negative and includes the fee; the wire value
		// is the positive amount with the fee stripped back out.
		value, err = utils.ParseBig(utils.SubDecimal(utils.NegDecimal(tx.NativeAmount), tx.NetworkFee))
		if err != nil {
			return "", "", err
		}
	} else {
		tokenAmount, err := utils.ParseBig(utils.NegDecimal(tx.NativeAmount))
		if err != nil {
			return "", "", err
		}
		data, err = parsedERC20ABI.Pack("transfer",
			common.HexToAddress(tx.Aux.TokenRecipientAddress), tokenAmount)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode transfer call: %w", err)
		}
		value = big.NewInt(0)
	}

	raw := types.NewTx(&types.LegacyTx{
		Nonce:    nonceVal.Uint64(),
		To:       &to,
		Value:    value,
		Gas:      gasLimit.Uint64(),
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(raw, types.NewEIP155Signer(s.chainID), s.priv)
	if err != nil {
		return "", "", err
	}
	payload, err := signed.MarshalBinary()
	if err != nil {
		return "", "", err
	}
	return hexutil.Encode(payload), signed.Hash().Hex(), nil
}
