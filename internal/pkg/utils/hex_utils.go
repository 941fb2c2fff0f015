package utils

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NormalizeAddress lower-cases an address or transaction hash and strips the
// "0x" prefix so that values from different API shapes compare equal.
func NormalizeAddress(addr string) string {
	return strings.TrimPrefix(strings.ToLower(addr), "0x")
}

// IsHex reports whether s consists only of hexadecimal characters. The empty
// string is not considered hex.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// PadAddress zero-pads a normalized 40-char address to the 64-char form used
// in log topic fields.
func PadAddress(addr string) string {
	norm := NormalizeAddress(addr)
	if len(norm) >= 64 {
		return norm
	}
	return strings.Repeat("0", 64-len(norm)) + norm
}

// ToHex renders a decimal-string value as a 0x-prefixed hex quantity.
func ToHex(decimal string) (string, error) {
	v, err := ParseBig(decimal)
	if err != nil {
		return "", err
	}
	return hexutil.EncodeBig(v), nil
}

// HexToBig parses a 0x-prefixed or bare hex quantity into a big.Int.
func HexToBig(hex string) (*big.Int, error) {
	stripped := strings.TrimPrefix(hex, "0x")
	v, ok := new(big.Int).SetString(stripped, 16)
	if !ok {
		return nil, ErrNotANumber
	}
	return v, nil
}
