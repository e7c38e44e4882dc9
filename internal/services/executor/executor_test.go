package executor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
)

type submittedOrder struct {
	symbol string
	side   domain.Side
	amount decimal.Decimal
}

// mockTrader records submissions and fails the symbols it is told to.
type mockTrader struct {
	orders  []submittedOrder
	failOn  map[string]error
	feeRate decimal.Decimal
}

func (m *mockTrader) SubmitMarketOrder(_ context.Context, symbol string, side domain.Side, amount decimal.Decimal) (domain.Fill, error) {
	if err, ok := m.failOn[symbol]; ok {
		return domain.Fill{}, err
	}
	m.orders = append(m.orders, submittedOrder{symbol: symbol, side: side, amount: amount})

	price := decimal.NewFromInt(100)
	fill := domain.Fill{Price: price}
	switch side {
	case domain.SideBuy:
		fill.Quantity = amount.Div(price)
		fill.Fee = amount.Mul(m.feeRate)
	case domain.SideSell:
		fill.Quantity = amount
		fill.Fee = amount.Mul(price).Mul(m.feeRate)
	}
	return fill, nil
}

func newCoordinator(trader Trader, dryRun bool) *Coordinator {
	c := New(trader, "USDT", decimal.NewFromFloat(0.0025), decimal.NewFromInt(50),
		dryRun, time.Millisecond, zap.NewNop())
	c.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	return c
}

func snapshotWithBase(available int64) *domain.PortfolioSnapshot {
	return &domain.PortfolioSnapshot{
		Base: "USDT",
		Assets: map[string]domain.AssetPosition{
			"USDT": {
				Quantity: decimal.NewFromInt(available),
				Price:    decimal.NewFromInt(1),
				Value:    decimal.NewFromInt(available),
			},
		},
		TotalValue: decimal.NewFromInt(available),
	}
}

func buy(symbol string, value int64) domain.TradeInstruction {
	v := decimal.NewFromInt(value)
	return domain.TradeInstruction{
		Symbol:   symbol,
		Side:     domain.SideBuy,
		Value:    v,
		Quantity: v.Div(decimal.NewFromInt(100)),
		Price:    decimal.NewFromInt(100),
	}
}

func sell(symbol string, value int64) domain.TradeInstruction {
	v := decimal.NewFromInt(value)
	return domain.TradeInstruction{
		Symbol:   symbol,
		Side:     domain.SideSell,
		Value:    v,
		Quantity: v.Div(decimal.NewFromInt(100)),
		Price:    decimal.NewFromInt(100),
	}
}

func TestExecuteFillsInPlanOrder(t *testing.T) {
	trader := &mockTrader{feeRate: decimal.NewFromFloat(0.0025)}
	coordinator := newCoordinator(trader, false)

	plan := &domain.Plan{Instructions: []domain.TradeInstruction{
		sell("ETH", 200),
		buy("BTC", 100),
	}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(1000))

	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.StatusFilled, outcomes[0].Status)
	assert.Equal(t, domain.StatusFilled, outcomes[1].Status)

	require.Len(t, trader.orders, 2)
	assert.Equal(t, "ETH", trader.orders[0].symbol)
	assert.Equal(t, domain.SideSell, trader.orders[0].side)
	assert.True(t, trader.orders[0].amount.Equal(decimal.NewFromInt(2)), "sell amount is the asset quantity")
	assert.Equal(t, "BTC", trader.orders[1].symbol)
	assert.True(t, trader.orders[1].amount.Equal(decimal.NewFromInt(100)), "buy amount is the base value")
}

func TestExecuteDryRunNeverTouchesTrader(t *testing.T) {
	trader := &mockTrader{}
	coordinator := newCoordinator(trader, true)

	plan := &domain.Plan{Instructions: []domain.TradeInstruction{
		sell("ETH", 200),
		buy("BTC", 100),
	}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(1000))

	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, domain.StatusSkipped, outcome.Status)
		assert.Equal(t, domain.SkipDryRun, outcome.Reason)
		assert.True(t, outcome.FilledQuantity.IsZero())
	}
	assert.Empty(t, trader.orders, "dry run must not submit anything")
}

func TestExecuteBaseInstructionIsImplicit(t *testing.T) {
	trader := &mockTrader{}
	coordinator := newCoordinator(trader, false)

	plan := &domain.Plan{Instructions: []domain.TradeInstruction{
		{Symbol: "USDT", Side: domain.SideSell, Value: decimal.NewFromInt(200),
			Quantity: decimal.NewFromInt(200), Price: decimal.NewFromInt(1)},
		buy("ETH", 200),
	}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(1000))

	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.StatusSkipped, outcomes[0].Status)
	assert.Equal(t, domain.SkipImplicitBase, outcomes[0].Reason)
	assert.Equal(t, domain.StatusFilled, outcomes[1].Status)

	require.Len(t, trader.orders, 1)
	assert.Equal(t, "ETH", trader.orders[0].symbol)
}

func TestExecuteFailureIsolated(t *testing.T) {
	trader := &mockTrader{
		feeRate: decimal.NewFromFloat(0.0025),
		failOn:  map[string]error{"ETH": errors.Wrap(domain.ErrRejected, "LOT_SIZE")},
	}
	coordinator := newCoordinator(trader, false)

	plan := &domain.Plan{Instructions: []domain.TradeInstruction{
		buy("ETH", 100),
		buy("BTC", 100),
	}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(1000))

	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, "LOT_SIZE")
	assert.Equal(t, domain.StatusFilled, outcomes[1].Status, "one rejection must not abort the rest")
}

func TestExecuteBuyClampedToAvailable(t *testing.T) {
	trader := &mockTrader{feeRate: decimal.NewFromFloat(0.0025)}
	coordinator := newCoordinator(trader, false)

	// 500 wanted, only 200 in the account: clamp to 200/1.0025 floored
	plan := &domain.Plan{Instructions: []domain.TradeInstruction{buy("BTC", 500)}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(200))

	require.Len(t, outcomes, 1)
	require.Equal(t, domain.StatusFilled, outcomes[0].Status)
	require.Len(t, trader.orders, 1)
	assert.True(t, trader.orders[0].amount.Equal(decimal.RequireFromString("199.50")),
		"amount %s", trader.orders[0].amount)
}

func TestExecuteBuyBeyondFundsFails(t *testing.T) {
	trader := &mockTrader{}
	coordinator := newCoordinator(trader, false)

	// even the clamped order would be under the 50 minimum
	plan := &domain.Plan{Instructions: []domain.TradeInstruction{buy("BTC", 500)}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(40))

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, domain.ErrInsufficientFunds.Error())
	assert.Empty(t, trader.orders)
}

func TestExecuteSellProceedsFundLaterBuys(t *testing.T) {
	trader := &mockTrader{feeRate: decimal.Zero}
	coordinator := newCoordinator(trader, false)
	coordinator.feeRate = decimal.Zero

	// 100 in the account, sell frees 200 more, then the 250 buy fits
	plan := &domain.Plan{Instructions: []domain.TradeInstruction{
		sell("ETH", 200),
		buy("BTC", 250),
	}}

	outcomes := coordinator.Execute(context.Background(), plan, snapshotWithBase(100))

	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.StatusFilled, outcomes[0].Status)
	require.Equal(t, domain.StatusFilled, outcomes[1].Status)
	require.Len(t, trader.orders, 2)
	assert.True(t, trader.orders[1].amount.Equal(decimal.NewFromInt(250)),
		"buy amount %s", trader.orders[1].amount)
}

func TestExecuteEmptyPlan(t *testing.T) {
	trader := &mockTrader{}
	coordinator := newCoordinator(trader, false)

	outcomes := coordinator.Execute(context.Background(), &domain.Plan{}, snapshotWithBase(1000))

	assert.Empty(t, outcomes)
	assert.Empty(t, trader.orders)
}
