package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SkipReason explains why an asset's adjustment was not submitted.
type SkipReason string

const (
	// SkipWithinThreshold means the deviation stayed inside the allowed band.
	SkipWithinThreshold SkipReason = "within_threshold"
	// SkipBelowMinOrder means the adjustment value was under the exchange
	// minimum order size.
	SkipBelowMinOrder SkipReason = "below_min_order"
	// SkipDryRun marks an instruction suppressed by dry-run mode.
	SkipDryRun SkipReason = "dry_run_simulated"
	// SkipImplicitBase marks a base-currency instruction: the base leg
	// rebalances through the counter-trades, there is no base/base order.
	SkipImplicitBase SkipReason = "implicit_via_counter_trades"
	// SkipUnpriced means the asset had no quote this run.
	SkipUnpriced SkipReason = "unpriced"
)

// TradeInstruction is one buy or sell the planner wants executed.
// Value is always denominated in the base currency; Quantity is the
// equivalent amount of the asset at snapshot price.
type TradeInstruction struct {
	Symbol       string
	Side         Side
	Value        decimal.Decimal
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	CurrentShare decimal.Decimal
	TargetShare  decimal.Decimal
	Deviation    decimal.Decimal
}

// String returns a short human-readable form used in logs.
func (i *TradeInstruction) String() string {
	return fmt.Sprintf("%s %s value=%s qty=%s", i.Side, i.Symbol, i.Value.StringFixed(2), i.Quantity.String())
}

// SkippedAdjustment records an asset the planner looked at but decided
// not to trade, with the reason kept for the run summary.
type SkippedAdjustment struct {
	Symbol       string
	Reason       SkipReason
	CurrentShare decimal.Decimal
	TargetShare  decimal.Decimal
	Deviation    decimal.Decimal
	Value        decimal.Decimal
}

// Plan is the planner's full output for one run: instructions to submit,
// in execution order (sells first), plus everything that was skipped.
type Plan struct {
	Instructions []TradeInstruction
	Skips        []SkippedAdjustment
}

// IsNoop reports whether the plan contains nothing to execute.
func (p *Plan) IsNoop() bool {
	return len(p.Instructions) == 0
}
