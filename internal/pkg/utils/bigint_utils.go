package utils

import (
	"errors"
	"math/big"
)

// ErrNotANumber is returned when a decimal-string amount fails to parse.
var ErrNotANumber = errors.New("value is not a valid decimal number")

// ParseBig parses a decimal-string amount into a big.Int. The empty string is
// treated as zero, matching the sparse-balance convention of the ledger.
func ParseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrNotANumber
	}
	return v, nil
}

func parseOrZero(s string) *big.Int {
	v, err := ParseBig(s)
	if err != nil {
		return big.NewInt(0)
	}
	return v
}

// AddDecimal returns a+b over decimal strings. Invalid input degrades to zero
// for that operand; callers that need strict parsing use ParseBig directly.
func AddDecimal(a, b string) string {
	return new(big.Int).Add(parseOrZero(a), parseOrZero(b)).String()
}

// SubDecimal returns a-b over decimal strings.
func SubDecimal(a, b string) string {
	return new(big.Int).Sub(parseOrZero(a), parseOrZero(b)).String()
}

// MulDecimal returns a*b over decimal strings.
func MulDecimal(a, b string) string {
	return new(big.Int).Mul(parseOrZero(a), parseOrZero(b)).String()
}

// DivDecimal returns a/b (truncated) over decimal strings. Division by zero
// returns "0".
func DivDecimal(a, b string) string {
	bv := parseOrZero(b)
	if bv.Sign() == 0 {
		return "0"
	}
	return new(big.Int).Quo(parseOrZero(a), bv).String()
}

// CmpDecimal compares two decimal strings, returning -1, 0 or +1.
func CmpDecimal(a, b string) int {
	return parseOrZero(a).Cmp(parseOrZero(b))
}

// NegDecimal returns -a over a decimal string.
func NegDecimal(a string) string {
	return new(big.Int).Neg(parseOrZero(a)).String()
}
