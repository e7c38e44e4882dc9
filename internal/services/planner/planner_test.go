package planner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
)

// snapshotOf builds a valued snapshot from value-per-symbol, pricing every
// asset at 1 except where a price is given.
func snapshotOf(base string, values map[string]decimal.Decimal, prices map[string]decimal.Decimal) *domain.PortfolioSnapshot {
	snap := &domain.PortfolioSnapshot{
		Base:       base,
		Assets:     make(map[string]domain.AssetPosition, len(values)),
		TotalValue: decimal.Zero,
	}
	for symbol, value := range values {
		price := decimal.NewFromInt(1)
		if p, ok := prices[symbol]; ok {
			price = p
		}
		snap.Assets[symbol] = domain.AssetPosition{
			Quantity: value.Div(price),
			Price:    price,
			Value:    value,
		}
		snap.TotalValue = snap.TotalValue.Add(value)
	}
	for symbol, pos := range snap.Assets {
		pos.Share = pos.Value.Div(snap.TotalValue)
		snap.Assets[symbol] = pos
	}
	return snap
}

func targetsOf(pairs ...any) *domain.TargetAllocation {
	targets := domain.NewTargetAllocation()
	for i := 0; i+1 < len(pairs); i += 2 {
		targets.Set(pairs[i].(string), decimal.NewFromFloat(pairs[i+1].(float64)))
	}
	return targets
}

func TestPlanSellsBeforeBuys(t *testing.T) {
	// total 1000: THB 30% vs 10% target, BTC on target, ETH 20% vs 40%
	snap := snapshotOf("THB",
		map[string]decimal.Decimal{
			"THB": decimal.NewFromInt(300),
			"BTC": decimal.NewFromInt(500),
			"ETH": decimal.NewFromInt(200),
		},
		map[string]decimal.Decimal{
			"BTC": decimal.NewFromInt(1000000),
			"ETH": decimal.NewFromInt(100000),
		})
	targets := targetsOf("THB", 0.1, "BTC", 0.5, "ETH", 0.4)

	svc := New(decimal.NewFromFloat(0.02), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	require.Len(t, plan.Instructions, 2)

	sell := plan.Instructions[0]
	assert.Equal(t, "THB", sell.Symbol)
	assert.Equal(t, domain.SideSell, sell.Side)
	assert.True(t, sell.Value.Equal(decimal.NewFromInt(200)), "sell value %s", sell.Value)

	buy := plan.Instructions[1]
	assert.Equal(t, "ETH", buy.Symbol)
	assert.Equal(t, domain.SideBuy, buy.Side)
	assert.True(t, buy.Value.Equal(decimal.NewFromInt(200)), "buy value %s", buy.Value)
	assert.True(t, buy.Quantity.Equal(decimal.NewFromFloat(0.002)), "buy quantity %s", buy.Quantity)

	// BTC sits exactly on target
	require.Len(t, plan.Skips, 1)
	assert.Equal(t, "BTC", plan.Skips[0].Symbol)
	assert.Equal(t, domain.SkipWithinThreshold, plan.Skips[0].Reason)
}

func TestPlanDeviationAtThresholdStays(t *testing.T) {
	// BTC at 55% vs 50% with a 5% threshold: exactly on the band edge
	snap := snapshotOf("USDT",
		map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(450),
			"BTC":  decimal.NewFromInt(550),
		},
		map[string]decimal.Decimal{"BTC": decimal.NewFromInt(50000)})
	targets := targetsOf("USDT", 0.5, "BTC", 0.5)

	svc := New(decimal.NewFromFloat(0.05), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	assert.True(t, plan.IsNoop())
	require.Len(t, plan.Skips, 2)
	for _, skip := range plan.Skips {
		assert.Equal(t, domain.SkipWithinThreshold, skip.Reason)
	}
}

func TestPlanBelowMinOrderSkipped(t *testing.T) {
	// deviation 3% of 1000 = 30, under the 50 minimum
	snap := snapshotOf("USDT",
		map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(530),
			"BTC":  decimal.NewFromInt(470),
		},
		map[string]decimal.Decimal{"BTC": decimal.NewFromInt(50000)})
	targets := targetsOf("USDT", 0.5, "BTC", 0.5)

	svc := New(decimal.NewFromFloat(0.02), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	assert.True(t, plan.IsNoop())

	var reasons []domain.SkipReason
	for _, skip := range plan.Skips {
		reasons = append(reasons, skip.Reason)
	}
	assert.Contains(t, reasons, domain.SkipBelowMinOrder, "a sized-out adjustment is not a threshold skip")
}

func TestPlanEmptyPortfolio(t *testing.T) {
	snap := &domain.PortfolioSnapshot{
		Base:       "USDT",
		Assets:     map[string]domain.AssetPosition{},
		TotalValue: decimal.Zero,
	}
	targets := targetsOf("USDT", 0.5, "BTC", 0.5)

	svc := New(decimal.NewFromFloat(0.05), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	assert.True(t, plan.IsNoop())
	assert.Empty(t, plan.Skips)
}

func TestPlanColdStartBuysEverything(t *testing.T) {
	// only base currency held, every targeted asset needs a buy
	snap := snapshotOf("USDT",
		map[string]decimal.Decimal{"USDT": decimal.NewFromInt(10000)},
		nil)
	snap.Assets["BTC"] = domain.AssetPosition{
		Quantity: decimal.Zero,
		Price:    decimal.NewFromInt(50000),
		Value:    decimal.Zero,
	}
	snap.Assets["ETH"] = domain.AssetPosition{
		Quantity: decimal.Zero,
		Price:    decimal.NewFromInt(2000),
		Value:    decimal.Zero,
	}
	targets := targetsOf("USDT", 0.2, "BTC", 0.5, "ETH", 0.3)

	svc := New(decimal.NewFromFloat(0.05), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	require.Len(t, plan.Instructions, 3)

	// the base sell frees the funds first, buys follow in target order
	assert.Equal(t, domain.SideSell, plan.Instructions[0].Side)
	assert.Equal(t, "USDT", plan.Instructions[0].Symbol)
	assert.Equal(t, "BTC", plan.Instructions[1].Symbol)
	assert.True(t, plan.Instructions[1].Value.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, "ETH", plan.Instructions[2].Symbol)
	assert.True(t, plan.Instructions[2].Value.Equal(decimal.NewFromInt(3000)))
}

func TestPlanUntargetedHoldingSoldOff(t *testing.T) {
	// DOGE has no target, its whole position deviates
	snap := snapshotOf("USDT",
		map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(800),
			"DOGE": decimal.NewFromInt(200),
		},
		map[string]decimal.Decimal{"DOGE": decimal.NewFromFloat(0.2)})
	targets := targetsOf("USDT", 1.0)

	svc := New(decimal.NewFromFloat(0.05), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	require.Len(t, plan.Instructions, 1)
	assert.Equal(t, "DOGE", plan.Instructions[0].Symbol)
	assert.Equal(t, domain.SideSell, plan.Instructions[0].Side)
	assert.True(t, plan.Instructions[0].Value.Equal(decimal.NewFromInt(200)))
}

func TestPlanUnpricedHoldingSkipped(t *testing.T) {
	snap := snapshotOf("USDT",
		map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)},
		nil)
	snap.Unpriced = []string{"SHIB"}
	targets := targetsOf("USDT", 0.5, "SHIB", 0.5)

	svc := New(decimal.NewFromFloat(0.05), decimal.NewFromInt(50), zap.NewNop())
	plan := svc.Plan(snap, targets)

	// USDT wants selling but SHIB cannot be bought without a quote
	require.Len(t, plan.Instructions, 1)
	assert.Equal(t, "USDT", plan.Instructions[0].Symbol)

	require.Len(t, plan.Skips, 1)
	assert.Equal(t, "SHIB", plan.Skips[0].Symbol)
	assert.Equal(t, domain.SkipUnpriced, plan.Skips[0].Reason)
}

func TestPlanDeterministicAcrossRuns(t *testing.T) {
	snap := snapshotOf("USDT",
		map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(4000),
			"BTC":  decimal.NewFromInt(100),
			"ETH":  decimal.NewFromInt(100),
			"SOL":  decimal.NewFromInt(100),
		},
		map[string]decimal.Decimal{
			"BTC": decimal.NewFromInt(50000),
			"ETH": decimal.NewFromInt(2000),
			"SOL": decimal.NewFromInt(100),
		})
	targets := targetsOf("USDT", 0.1, "BTC", 0.3, "ETH", 0.3, "SOL", 0.3)

	svc := New(decimal.NewFromFloat(0.05), decimal.NewFromInt(50), zap.NewNop())

	first := svc.Plan(snap, targets)
	for i := 0; i < 20; i++ {
		again := svc.Plan(snap, targets)
		require.Equal(t, first.Instructions, again.Instructions, "instruction order must not depend on map iteration")
	}
}
