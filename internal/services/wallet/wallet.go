// Package wallet fetches account balances from the exchange.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Wallet exposes the account's spot balances, one entry per asset symbol.
type Wallet interface {
	Balances(ctx context.Context) (map[string]decimal.Decimal, error)
}
