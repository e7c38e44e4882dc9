// Package executor submits planned trade instructions to the exchange,
// one at a time, and records an outcome for every instruction.
package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Trader submits market orders to the exchange. For SideBuy the amount is
// the base-currency value to spend, for SideSell it is the asset quantity
// to dispose.
type Trader interface {
	SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, amount decimal.Decimal) (domain.Fill, error)
}

// Coordinator executes a plan strictly sequentially. Sequential submission
// preserves the sell-before-buy order and keeps the request rate within
// exchange limits. One instruction's failure never aborts the rest.
type Coordinator struct {
	trader   Trader
	base     string
	feeRate  decimal.Decimal
	minOrder decimal.Decimal
	dryRun   bool
	limiter  *rate.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

// New returns a coordinator. spacing is the minimum delay between order
// submissions; dryRun suppresses all exchange interaction.
func New(trader Trader, base string, feeRate, minOrder decimal.Decimal, dryRun bool, spacing time.Duration, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spacing <= 0 {
		spacing = time.Second
	}
	return &Coordinator{
		trader:   trader,
		base:     base,
		feeRate:  feeRate,
		minOrder: minOrder,
		dryRun:   dryRun,
		limiter:  rate.NewLimiter(rate.Every(spacing), 1),
		logger:   logger,
		now:      time.Now,
	}
}

// Execute submits every instruction in plan order and returns one outcome
// per instruction. Buys are bounded by the base-currency balance actually
// available: sells release their proceeds into the ceiling first, and a
// buy that cannot be covered even after clamping fails in isolation.
func (c *Coordinator) Execute(ctx context.Context, plan *domain.Plan, snap *domain.PortfolioSnapshot) []domain.TradeOutcome {
	outcomes := make([]domain.TradeOutcome, 0, len(plan.Instructions))

	// funds ceiling for buys; base currency is valued at 1
	available := snap.Quantity(c.base)

	for _, instruction := range plan.Instructions {
		outcomes = append(outcomes, c.execute(ctx, instruction, &available))
	}

	return outcomes
}

func (c *Coordinator) execute(ctx context.Context, instruction domain.TradeInstruction, available *decimal.Decimal) domain.TradeOutcome {
	outcome := domain.TradeOutcome{
		Instruction: instruction,
		Timestamp:   c.now(),
	}

	if c.dryRun {
		// fully side-effect free: no order, no rate limiter, no balance math
		outcome.Status = domain.StatusSkipped
		outcome.Reason = domain.SkipDryRun
		c.logger.Info("dry run, order suppressed", zap.String("instruction", instruction.String()))
		return outcome
	}

	if instruction.Symbol == c.base {
		// the base leg settles through the counter-trades
		outcome.Status = domain.StatusSkipped
		outcome.Reason = domain.SkipImplicitBase
		return outcome
	}

	amount := instruction.Quantity
	if instruction.Side == domain.SideBuy {
		value, err := c.clampToAvailable(instruction.Value, *available)
		if err != nil {
			c.logger.Warn("buy not covered by available base balance",
				zap.String("symbol", instruction.Symbol),
				zap.String("wanted", instruction.Value.StringFixed(2)),
				zap.String("available", available.StringFixed(2)))
			return c.failed(outcome, err)
		}
		amount = value
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.failed(outcome, err)
	}

	c.logger.Info("submitting market order",
		zap.String("symbol", instruction.Symbol),
		zap.String("side", instruction.Side.String()),
		zap.String("amount", amount.String()))

	fill, err := c.trader.SubmitMarketOrder(ctx, instruction.Symbol, instruction.Side, amount)
	if err != nil {
		c.logger.Error("order submission failed",
			zap.String("symbol", instruction.Symbol),
			zap.String("side", instruction.Side.String()),
			zap.Error(err))
		return c.failed(outcome, err)
	}

	outcome.Status = domain.StatusFilled
	outcome.FilledQuantity = fill.Quantity
	outcome.FilledPrice = fill.Price
	outcome.Fee = fill.Fee
	c.settle(instruction, amount, fill, available)

	return outcome
}

// clampToAvailable bounds a buy's base-currency value by what the account
// can spend including the taker fee. It fails when even the clamped order
// would be under the exchange minimum.
func (c *Coordinator) clampToAvailable(value, available decimal.Decimal) (decimal.Decimal, error) {
	required := value.Mul(decimal.NewFromInt(1).Add(c.feeRate))
	if required.LessThanOrEqual(available) {
		return value, nil
	}

	clamped := available.Div(decimal.NewFromInt(1).Add(c.feeRate)).RoundFloor(2)
	if clamped.LessThan(c.minOrder) || !clamped.IsPositive() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	return clamped, nil
}

// settle adjusts the running base-currency ceiling after a fill.
func (c *Coordinator) settle(instruction domain.TradeInstruction, amount decimal.Decimal, fill domain.Fill, available *decimal.Decimal) {
	fee := fill.Fee
	switch instruction.Side {
	case domain.SideBuy:
		if fee.IsZero() {
			fee = amount.Mul(c.feeRate)
		}
		*available = available.Sub(amount).Sub(fee)
	case domain.SideSell:
		proceeds := instruction.Value
		if fill.Quantity.IsPositive() && fill.Price.IsPositive() {
			proceeds = fill.Quantity.Mul(fill.Price)
		}
		if fee.IsZero() {
			fee = proceeds.Mul(c.feeRate)
		}
		*available = available.Add(proceeds).Sub(fee)
	}
}

func (c *Coordinator) failed(outcome domain.TradeOutcome, err error) domain.TradeOutcome {
	outcome.Status = domain.StatusFailed
	outcome.Error = err.Error()
	return outcome
}
