package internal

import (
	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/rebalancer/internal/services/pricer"
	"github.com/vadiminshakov/rebalancer/internal/services/simulate"
	"github.com/vadiminshakov/rebalancer/internal/services/trader"
	"github.com/vadiminshakov/rebalancer/internal/services/wallet"
	"go.uber.org/zap"
)

// venue bundles the three exchange-facing collaborators for one platform.
type venue struct {
	wallet wallet.Wallet
	pricer pricer.Pricer
	trader trader.Trader
}

// newVenue dispatches on the client type. This is the single point of
// truth for platform-specific wiring.
func newVenue(client any, base string, logger *zap.Logger) (venue, error) {
	switch c := client.(type) {
	case *binance.Client:
		return venue{
			wallet: wallet.NewBinanceWallet(c),
			pricer: pricer.NewBinancePricer(c, base, logger),
			trader: trader.NewBinanceTrader(c, base),
		}, nil
	case *bybit.Client:
		return venue{
			wallet: wallet.NewBybitWallet(c),
			pricer: pricer.NewBybitPricer(c, base, logger),
			trader: trader.NewBybitTrader(c, base),
		}, nil
	case *simulate.Exchange:
		return venue{wallet: c, pricer: c, trader: c}, nil
	default:
		return venue{}, errors.Errorf("unsupported client type: %T", client)
	}
}
