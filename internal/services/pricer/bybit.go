package pricer

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BybitPricer resolves asset prices from Bybit spot tickers.
type BybitPricer struct {
	client *bybit.Client
	base   string
	logger *zap.Logger
}

// NewBybitPricer returns a pricer quoting against the given base currency.
func NewBybitPricer(client *bybit.Client, base string, logger *zap.Logger) *BybitPricer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BybitPricer{client: client, base: base, logger: logger}
}

// Prices fetches the full spot ticker list once and picks out the
// requested symbols.
func (p *BybitPricer) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit tickers")
	}

	bySymbol := make(map[string]string, len(result.Result.Spot.List))
	for _, ticker := range result.Result.Spot.List {
		bySymbol[string(ticker.Symbol)] = ticker.LastPrice
	}

	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		if symbol == p.base {
			continue
		}
		raw, ok := bySymbol[symbol+p.base]
		if !ok {
			p.logger.Warn("no bybit market for symbol",
				zap.String("symbol", symbol), zap.String("base", p.base))
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse bybit price for %s", symbol)
		}
		prices[symbol] = price
	}
	return prices, nil
}
