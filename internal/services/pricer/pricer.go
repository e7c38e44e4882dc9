// Package pricer fetches last market prices denominated in the base currency.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"
)

// Pricer returns the last price for each requested asset symbol, quoted in
// the base currency. Symbols the venue has no market for are simply absent
// from the result; that is not an error.
type Pricer interface {
	Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}
