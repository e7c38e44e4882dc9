package pricer

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BinancePricer resolves asset prices from Binance spot tickers.
type BinancePricer struct {
	client *binance.Client
	base   string
	logger *zap.Logger
}

// NewBinancePricer returns a pricer quoting against the given base currency.
func NewBinancePricer(client *binance.Client, base string, logger *zap.Logger) *BinancePricer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinancePricer{client: client, base: base, logger: logger}
}

// Prices fetches all tickers in one call and picks out the requested
// symbols. A symbol without a <SYMBOL><BASE> market is left out with a
// warning.
func (p *BinancePricer) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	tickers, err := p.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list binance prices")
	}

	bySymbol := make(map[string]string, len(tickers))
	for _, ticker := range tickers {
		bySymbol[ticker.Symbol] = ticker.Price
	}

	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		if symbol == p.base {
			continue
		}
		raw, ok := bySymbol[symbol+p.base]
		if !ok {
			p.logger.Warn("no binance market for symbol",
				zap.String("symbol", symbol), zap.String("base", p.base))
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse binance price for %s", symbol)
		}
		prices[symbol] = price
	}
	return prices, nil
}
