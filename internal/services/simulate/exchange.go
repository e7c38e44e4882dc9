// Package simulate provides an in-memory exchange venue: real market
// prices, simulated balances and fills. Useful for trying the engine out
// without an account.
package simulate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"github.com/vadiminshakov/rebalancer/internal/services/pricer"
	"go.uber.org/zap"
)

const defaultSeedBalance = 10000

// Exchange is a venue backed by an in-memory wallet. It implements the
// wallet, pricer and trader contracts at once.
type Exchange struct {
	mu      sync.RWMutex
	base    string
	pricer  pricer.Pricer
	wallet  map[string]decimal.Decimal
	feeRate decimal.Decimal
	logger  *zap.Logger
}

// NewExchange seeds the simulated account with base currency only, so the
// first run behaves like a cold start.
func NewExchange(base string, prices pricer.Pricer, feeRate decimal.Decimal, logger *zap.Logger) (*Exchange, error) {
	if prices == nil {
		return nil, errors.New("pricer is required for the simulated exchange")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Exchange{
		base:    base,
		pricer:  prices,
		wallet:  map[string]decimal.Decimal{base: decimal.NewFromInt(defaultSeedBalance)},
		feeRate: feeRate,
		logger:  logger,
	}
	logger.Info("simulated exchange initialized",
		zap.String("base", base),
		zap.String("seed_balance", e.wallet[base].String()))
	return e, nil
}

// Balances returns a copy of the simulated wallet.
func (e *Exchange) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(e.wallet))
	for symbol, quantity := range e.wallet {
		if quantity.IsPositive() {
			out[symbol] = quantity
		}
	}
	return out, nil
}

// Prices delegates to the wrapped real-market pricer.
func (e *Exchange) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	return e.pricer.Prices(ctx, symbols)
}

// SubmitMarketOrder fills immediately at the current market price against
// the in-memory wallet, charging the configured fee rate in base currency.
func (e *Exchange) SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, amount decimal.Decimal) (domain.Fill, error) {
	prices, err := e.pricer.Prices(ctx, []string{symbol})
	if err != nil {
		return domain.Fill{}, errors.Wrap(domain.ErrConnectivity, err.Error())
	}
	price, ok := prices[symbol]
	if !ok || !price.IsPositive() {
		return domain.Fill{}, errors.Wrapf(domain.ErrRejected, "no market price for %s", symbol)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch side {
	case domain.SideBuy:
		cost := amount
		fee := cost.Mul(e.feeRate)
		if e.wallet[e.base].LessThan(cost.Add(fee)) {
			return domain.Fill{}, errors.Wrapf(domain.ErrInsufficientFunds,
				"need %s %s, have %s", cost.Add(fee).StringFixed(2), e.base, e.wallet[e.base].StringFixed(2))
		}
		quantity := cost.Div(price)
		e.wallet[e.base] = e.wallet[e.base].Sub(cost).Sub(fee)
		e.wallet[symbol] = e.wallet[symbol].Add(quantity)
		e.logOrder(symbol, side, quantity, price, fee)
		return domain.Fill{Quantity: quantity, Price: price, Fee: fee}, nil

	case domain.SideSell:
		if e.wallet[symbol].LessThan(amount) {
			return domain.Fill{}, errors.Wrapf(domain.ErrInsufficientFunds,
				"need %s %s, have %s", amount.String(), symbol, e.wallet[symbol].String())
		}
		proceeds := amount.Mul(price)
		fee := proceeds.Mul(e.feeRate)
		e.wallet[symbol] = e.wallet[symbol].Sub(amount)
		e.wallet[e.base] = e.wallet[e.base].Add(proceeds).Sub(fee)
		e.logOrder(symbol, side, amount, price, fee)
		return domain.Fill{Quantity: amount, Price: price, Fee: fee}, nil

	default:
		return domain.Fill{}, errors.Wrapf(domain.ErrRejected, "unknown side: %s", side)
	}
}

func (e *Exchange) logOrder(symbol string, side domain.Side, quantity, price, fee decimal.Decimal) {
	e.logger.Info("simulated fill",
		zap.String("symbol", symbol),
		zap.String("side", side.String()),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("fee", fee.StringFixed(4)))
}
