package simulate

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
)

// staticPricer serves fixed quotes.
type staticPricer struct {
	prices map[string]decimal.Decimal
}

func (p *staticPricer) Prices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		if price, ok := p.prices[symbol]; ok {
			out[symbol] = price
		}
	}
	return out, nil
}

func newTestExchange(t *testing.T) *Exchange {
	t.Helper()
	prices := &staticPricer{prices: map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(50000),
		"ETH": decimal.NewFromInt(2000),
	}}
	e, err := NewExchange("USDT", prices, decimal.NewFromFloat(0.0025), zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestExchangeSeedBalance(t *testing.T) {
	e := newTestExchange(t)

	balances, err := e.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances["USDT"].Equal(decimal.NewFromInt(10000)))
}

func TestExchangeBuy(t *testing.T) {
	e := newTestExchange(t)
	ctx := context.Background()

	fill, err := e.SubmitMarketOrder(ctx, "BTC", domain.SideBuy, decimal.NewFromInt(1000))
	require.NoError(t, err)

	assert.True(t, fill.Quantity.Equal(decimal.NewFromFloat(0.02)), "quantity %s", fill.Quantity)
	assert.True(t, fill.Price.Equal(decimal.NewFromInt(50000)))
	assert.True(t, fill.Fee.Equal(decimal.NewFromFloat(2.5)), "fee %s", fill.Fee)

	balances, err := e.Balances(ctx)
	require.NoError(t, err)
	assert.True(t, balances["USDT"].Equal(decimal.RequireFromString("8997.5")), "base %s", balances["USDT"])
	assert.True(t, balances["BTC"].Equal(decimal.NewFromFloat(0.02)))
}

func TestExchangeSell(t *testing.T) {
	e := newTestExchange(t)
	ctx := context.Background()

	_, err := e.SubmitMarketOrder(ctx, "ETH", domain.SideBuy, decimal.NewFromInt(2000))
	require.NoError(t, err)

	fill, err := e.SubmitMarketOrder(ctx, "ETH", domain.SideSell, decimal.NewFromFloat(0.5))
	require.NoError(t, err)

	assert.True(t, fill.Quantity.Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, fill.Price.Equal(decimal.NewFromInt(2000)))
	// proceeds 1000, fee 2.5
	assert.True(t, fill.Fee.Equal(decimal.NewFromFloat(2.5)))

	balances, err := e.Balances(ctx)
	require.NoError(t, err)
	assert.True(t, balances["ETH"].Equal(decimal.NewFromFloat(0.5)))
}

func TestExchangeBuyInsufficientFunds(t *testing.T) {
	e := newTestExchange(t)

	_, err := e.SubmitMarketOrder(context.Background(), "BTC", domain.SideBuy, decimal.NewFromInt(20000))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestExchangeSellMoreThanHeld(t *testing.T) {
	e := newTestExchange(t)

	_, err := e.SubmitMarketOrder(context.Background(), "BTC", domain.SideSell, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestExchangeUnknownSymbolRejected(t *testing.T) {
	e := newTestExchange(t)

	_, err := e.SubmitMarketOrder(context.Background(), "DOGE", domain.SideBuy, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRejected)
}
