// Package planner is the rebalancing decision engine: it compares current
// portfolio shares to target shares and emits the trade instructions that
// move the portfolio toward target.
package planner

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
)

// Service plans one rebalancing pass. Deviations are computed exactly once
// against the initial snapshot; the plan is never recomputed to reflect
// hypothetical post-trade state. That keeps a run to a single bounded
// pass: at most one instruction per deviating asset.
type Service struct {
	threshold decimal.Decimal
	minOrder  decimal.Decimal
	logger    *zap.Logger
}

// New returns a planner with the given deviation threshold (fraction of
// portfolio value, e.g. 0.02) and minimum order value (in base currency).
func New(threshold, minOrder decimal.Decimal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{threshold: threshold, minOrder: minOrder, logger: logger}
}

// Plan walks the union of targeted and held symbols and produces the
// ordered instruction list: sells first, buys after, each side in target
// configuration order followed by held-only symbols. A deviation exactly
// equal to the threshold stays within the band.
func (s *Service) Plan(snap *domain.PortfolioSnapshot, targets *domain.TargetAllocation) *domain.Plan {
	plan := &domain.Plan{}

	if snap.IsEmpty() {
		// nothing to value means nothing to trade; a no-op run, not an error
		s.logger.Info("portfolio has no value, skipping planning")
		return plan
	}

	var sells, buys []domain.TradeInstruction

	for _, symbol := range s.universe(snap, targets) {
		current := snap.Share(symbol)
		target := targets.Share(symbol)
		deviation := current.Sub(target)

		if current.IsZero() && target.IsZero() {
			continue
		}

		if deviation.Abs().LessThanOrEqual(s.threshold) {
			plan.Skips = append(plan.Skips, domain.SkippedAdjustment{
				Symbol:       symbol,
				Reason:       domain.SkipWithinThreshold,
				CurrentShare: current,
				TargetShare:  target,
				Deviation:    deviation,
			})
			continue
		}

		value := deviation.Mul(snap.TotalValue).Abs()

		pos, priced := snap.Assets[symbol]
		if !priced {
			plan.Skips = append(plan.Skips, domain.SkippedAdjustment{
				Symbol:       symbol,
				Reason:       domain.SkipUnpriced,
				CurrentShare: current,
				TargetShare:  target,
				Deviation:    deviation,
				Value:        value,
			})
			continue
		}

		if value.LessThan(s.minOrder) {
			plan.Skips = append(plan.Skips, domain.SkippedAdjustment{
				Symbol:       symbol,
				Reason:       domain.SkipBelowMinOrder,
				CurrentShare: current,
				TargetShare:  target,
				Deviation:    deviation,
				Value:        value,
			})
			continue
		}

		side := domain.SideBuy
		if deviation.IsPositive() {
			side = domain.SideSell
		}

		instruction := domain.TradeInstruction{
			Symbol:       symbol,
			Side:         side,
			Value:        value,
			Quantity:     value.Div(pos.Price),
			Price:        pos.Price,
			CurrentShare: current,
			TargetShare:  target,
			Deviation:    deviation,
		}

		if side == domain.SideSell {
			sells = append(sells, instruction)
		} else {
			buys = append(buys, instruction)
		}
	}

	// sells go first so freed base currency is available before any buy
	// is attempted; the coordinator preserves this order
	plan.Instructions = append(sells, buys...)
	return plan
}

// universe returns targeted symbols in configuration order followed by
// held symbols without a target, sorted for reproducibility.
func (s *Service) universe(snap *domain.PortfolioSnapshot, targets *domain.TargetAllocation) []string {
	symbols := targets.Symbols()

	var untargeted []string
	for symbol := range snap.Assets {
		if !targets.Contains(symbol) {
			untargeted = append(untargeted, symbol)
		}
	}
	for _, symbol := range snap.Unpriced {
		if !targets.Contains(symbol) {
			untargeted = append(untargeted, symbol)
		}
	}
	sort.Strings(untargeted)

	return append(symbols, untargeted...)
}
