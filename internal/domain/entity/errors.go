package entity

import (
	"errors"
	"fmt"
)

// Errors surfaced synchronously to spend and token-management callers.
// Background sync failures are never wrapped in these; they are logged and
// the task reschedules.
var (
	ErrInvalidSpendRequest  = errors.New("invalid spend request")
	ErrUnsupportedAsset     = errors.New("asset not supported or not enabled")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientFeeFunds = errors.New("insufficient funds for transaction fee")

	ErrInvalidTokenCode       = errors.New("token code must be uppercase")
	ErrInvalidTokenCodeLength = errors.New("token code must be 2 to 7 characters")
	ErrInvalidTokenName       = errors.New("token name must be 3 to 20 characters")
	ErrInvalidTokenMultiplier = errors.New("token multiplier out of range")
	ErrInvalidContractAddress = errors.New("token contract address must be 40 hex characters")
	ErrCannotModifyToken      = errors.New("built-in token cannot be modified")

	// ErrCorruptRecord marks a remote transaction record that cannot be
	// trusted and is discarded rather than stored.
	ErrCorruptRecord = errors.New("corrupt remote transaction record")

	// ErrBroadcastRetryExhausted converts an oscillating nonce conflict into
	// a fatal error once the retry ceiling is reached.
	ErrBroadcastRetryExhausted = errors.New("broadcast retry limit reached")
)

// BroadcastError carries an unrecognized server-side rejection verbatim.
type BroadcastError struct {
	Reason string
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast rejected: %s", e.Reason)
}
