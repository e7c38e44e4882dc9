package domain

import "github.com/shopspring/decimal"

// AssetPosition is one asset's slice of the portfolio at valuation time.
type AssetPosition struct {
	// Quantity held, in units of the asset itself.
	Quantity decimal.Decimal
	// Price of one unit, denominated in the base currency.
	Price decimal.Decimal
	// Value is Quantity * Price in the base currency.
	Value decimal.Decimal
	// Share is Value / TotalValue; zero when the portfolio is empty.
	Share decimal.Decimal
}

// PortfolioSnapshot is the valued state of the account at a single instant.
// It is derived fresh for every run and never mutated afterwards.
type PortfolioSnapshot struct {
	// Base is the base currency symbol all values are denominated in.
	Base string
	// Assets maps symbol to its valued position. Only priced assets appear.
	Assets map[string]AssetPosition
	// TotalValue is the sum of all priced asset values.
	TotalValue decimal.Decimal
	// Unpriced lists held symbols that had no quote and were excluded
	// from valuation. They cannot be targeted this run.
	Unpriced []string
}

// Share returns the current share of the given symbol, zero if absent.
func (s *PortfolioSnapshot) Share(symbol string) decimal.Decimal {
	if pos, ok := s.Assets[symbol]; ok {
		return pos.Share
	}
	return decimal.Zero
}

// Price returns the quoted price of the given symbol, zero if absent.
func (s *PortfolioSnapshot) Price(symbol string) decimal.Decimal {
	if pos, ok := s.Assets[symbol]; ok {
		return pos.Price
	}
	return decimal.Zero
}

// Value returns the base-currency value of the given symbol, zero if absent.
func (s *PortfolioSnapshot) Value(symbol string) decimal.Decimal {
	if pos, ok := s.Assets[symbol]; ok {
		return pos.Value
	}
	return decimal.Zero
}

// Quantity returns the held quantity of the given symbol, zero if absent.
func (s *PortfolioSnapshot) Quantity(symbol string) decimal.Decimal {
	if pos, ok := s.Assets[symbol]; ok {
		return pos.Quantity
	}
	return decimal.Zero
}

// IsEmpty reports whether the snapshot carries no value at all.
// An empty portfolio produces a no-op run, not an error.
func (s *PortfolioSnapshot) IsEmpty() bool {
	return s.TotalValue.LessThanOrEqual(decimal.Zero)
}
