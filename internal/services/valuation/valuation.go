// Package valuation converts raw balances and quotes into a valued
// portfolio snapshot.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
)

// Service computes portfolio snapshots. It is pure and stateless apart
// from the base currency it denominates values in.
type Service struct {
	base   string
	logger *zap.Logger
}

// New returns a valuation service for the given base currency.
func New(base string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{base: base, logger: logger}
}

// Snapshot values every balance at its quoted price and computes each
// asset's share of the total. The base currency always has price 1.
// A held symbol without a quote is excluded from the total and flagged,
// it does not abort the run.
func (s *Service) Snapshot(balances, prices map[string]decimal.Decimal) *domain.PortfolioSnapshot {
	snap := &domain.PortfolioSnapshot{
		Base:       s.base,
		Assets:     make(map[string]domain.AssetPosition, len(balances)),
		TotalValue: decimal.Zero,
	}

	for symbol, quantity := range balances {
		price, ok := s.price(symbol, prices)
		if !ok {
			if quantity.IsPositive() {
				snap.Unpriced = append(snap.Unpriced, symbol)
				s.logger.Warn("no quote for held asset, excluding from valuation",
					zap.String("symbol", symbol),
					zap.String("quantity", quantity.String()))
			}
			continue
		}

		value := quantity.Mul(price)
		snap.Assets[symbol] = domain.AssetPosition{
			Quantity: quantity,
			Price:    price,
			Value:    value,
		}
		snap.TotalValue = snap.TotalValue.Add(value)
	}

	sort.Strings(snap.Unpriced)

	if snap.TotalValue.IsPositive() {
		for symbol, pos := range snap.Assets {
			pos.Share = pos.Value.Div(snap.TotalValue)
			snap.Assets[symbol] = pos
		}
	}

	return snap
}

func (s *Service) price(symbol string, prices map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if symbol == s.base {
		return decimal.NewFromInt(1), true
	}
	price, ok := prices[symbol]
	if !ok || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}
