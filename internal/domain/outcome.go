package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeStatus is the terminal state of one trade instruction.
type OutcomeStatus string

const (
	// StatusFilled means the order was submitted and executed.
	StatusFilled OutcomeStatus = "FILLED"
	// StatusSkipped means the instruction was deliberately not submitted.
	StatusSkipped OutcomeStatus = "SKIPPED"
	// StatusFailed means submission was attempted and the exchange refused.
	StatusFailed OutcomeStatus = "FAILED"
)

// Fill reports what the exchange actually executed for a market order.
type Fill struct {
	// Quantity filled, in units of the traded asset.
	Quantity decimal.Decimal
	// Price is the average execution price in the base currency.
	Price decimal.Decimal
	// Fee paid, in the base currency. Zero when the venue does not report it.
	Fee decimal.Decimal
}

// TradeOutcome records how one instruction ended. One row per instruction
// is appended to the trade ledger; the engine never reads outcomes back
// to make decisions.
type TradeOutcome struct {
	Instruction TradeInstruction `json:"instruction"`
	Status      OutcomeStatus    `json:"status"`
	// Reason is set for SKIPPED outcomes.
	Reason SkipReason `json:"reason,omitempty"`
	// Error detail for FAILED outcomes.
	Error          string          `json:"error,omitempty"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	FilledPrice    decimal.Decimal `json:"filled_price"`
	Fee            decimal.Decimal `json:"fee"`
	Timestamp      time.Time       `json:"timestamp"`
}
