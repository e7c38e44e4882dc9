// Package domain defines core data structures shared by the rebalancing pipeline.
package domain

// Side is the direction of a trade instruction.
type Side string

const (
	// SideBuy acquires an asset by spending the base currency.
	SideBuy Side = "BUY"
	// SideSell disposes an asset in exchange for the base currency.
	SideSell Side = "SELL"
)

// String returns the string representation.
func (s Side) String() string {
	return string(s)
}
