package trader

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// BybitTrader places spot market orders on Bybit.
type BybitTrader struct {
	client *bybit.Client
	base   string
}

// NewBybitTrader returns a trader quoting against the given base currency.
func NewBybitTrader(client *bybit.Client, base string) *BybitTrader {
	return &BybitTrader{client: client, base: base}
}

// SubmitMarketOrder submits one market order. For spot market buys Bybit
// interprets Qty as quote-currency value, for sells as base quantity,
// which matches the coordinator's amounts exactly. The immediate response
// carries no fill data; callers fall back to snapshot prices.
func (t *BybitTrader) SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, amount decimal.Decimal) (domain.Fill, error) {
	var bybitSide bybit.Side
	var qty string
	switch side {
	case domain.SideBuy:
		bybitSide = bybit.SideBuy
		qty = amount.RoundFloor(2).String()
	case domain.SideSell:
		bybitSide = bybit.SideSell
		qty = amount.RoundFloor(6).String()
	default:
		return domain.Fill{}, fmt.Errorf("unknown side: %s", side)
	}

	orderLinkID := "rebal-" + uuid.New().String()
	_, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    "spot",
		Symbol:      bybit.SymbolV5(symbol + t.base),
		Side:        bybitSide,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         qty,
		OrderLinkID: &orderLinkID,
	})
	if err != nil {
		return domain.Fill{}, classify(err)
	}

	return domain.Fill{}, nil
}
