package domain

import "github.com/pkg/errors"

// Execution error taxonomy. Venue adapters map exchange responses onto
// these sentinels so the coordinator and reports stay venue-agnostic.
var (
	// ErrInsufficientFunds: the account cannot cover the order.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrRateLimited: the venue rejected the request for pacing reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrRejected: the venue refused the order for any other reason.
	ErrRejected = errors.New("order rejected")
	// ErrConnectivity: the venue could not be reached at all.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrDataUnavailable: balances or prices could not be fetched; the run
	// aborts before any order is placed.
	ErrDataUnavailable = errors.New("market data unavailable")
)

// ConfigError is a fatal configuration problem detected before a run starts.
type ConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// NewConfigError builds a ConfigError with the given reason.
func NewConfigError(reason string) *ConfigError {
	return &ConfigError{Reason: reason}
}
