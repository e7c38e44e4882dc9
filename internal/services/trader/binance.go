package trader

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

const binanceClientOrderPrefix = "rebal-"

// Binance API error codes of interest.
const (
	binanceCodeTooManyRequests     = -1003
	binanceCodeInsufficientBalance = -2010
)

// BinanceTrader places spot market orders on Binance.
type BinanceTrader struct {
	client *binance.Client
	base   string
}

// NewBinanceTrader returns a trader quoting against the given base currency.
func NewBinanceTrader(client *binance.Client, base string) *BinanceTrader {
	return &BinanceTrader{client: client, base: base}
}

// SubmitMarketOrder submits one market order. Buys spend quote currency
// (QuoteOrderQty), sells dispose a base-asset quantity.
func (t *BinanceTrader) SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, amount decimal.Decimal) (domain.Fill, error) {
	svc := t.client.NewCreateOrderService().
		Symbol(symbol + t.base).
		Type(binance.OrderTypeMarket).
		NewClientOrderID(binanceClientOrderPrefix + uuid.New().String())

	switch side {
	case domain.SideBuy:
		svc = svc.Side(binance.SideTypeBuy).QuoteOrderQty(amount.RoundFloor(2).String())
	case domain.SideSell:
		svc = svc.Side(binance.SideTypeSell).Quantity(amount.RoundFloor(6).String())
	default:
		return domain.Fill{}, fmt.Errorf("unknown side: %s", side)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return domain.Fill{}, t.mapError(err)
	}

	return parseBinanceFill(res), nil
}

func (t *BinanceTrader) mapError(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case binanceCodeTooManyRequests:
			return errors.Wrap(domain.ErrRateLimited, apiErr.Error())
		case binanceCodeInsufficientBalance:
			return errors.Wrap(domain.ErrInsufficientFunds, apiErr.Error())
		default:
			return errors.Wrap(domain.ErrRejected, apiErr.Error())
		}
	}
	return classify(err)
}

// parseBinanceFill extracts executed quantity and the average fill price
// from the immediate order response.
func parseBinanceFill(res *binance.CreateOrderResponse) domain.Fill {
	fill := domain.Fill{}
	if res == nil {
		return fill
	}

	if qty, err := decimal.NewFromString(res.ExecutedQuantity); err == nil {
		fill.Quantity = qty
	}
	if quote, err := decimal.NewFromString(res.CummulativeQuoteQuantity); err == nil && fill.Quantity.IsPositive() {
		fill.Price = quote.Div(fill.Quantity)
	}

	for _, f := range res.Fills {
		if commission, err := decimal.NewFromString(f.Commission); err == nil {
			fill.Fee = fill.Fee.Add(commission)
		}
	}
	return fill
}
