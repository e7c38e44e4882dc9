// Package trader submits market orders to exchange venues and maps venue
// failures onto the shared error taxonomy.
package trader

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

// Trader places a market order. For domain.SideBuy the amount is the
// base-currency value to spend; for domain.SideSell it is the asset
// quantity to dispose.
type Trader interface {
	SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, amount decimal.Decimal) (domain.Fill, error)
}

// classify maps an opaque venue error onto the domain taxonomy by message
// inspection. Venue adapters with structured error codes map those first
// and fall back to this.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient"):
		return errors.Wrap(domain.ErrInsufficientFunds, err.Error())
	case strings.Contains(msg, "too many") || strings.Contains(msg, "rate limit"):
		return errors.Wrap(domain.ErrRateLimited, err.Error())
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "context deadline"):
		return errors.Wrap(domain.ErrConnectivity, err.Error())
	default:
		return errors.Wrap(domain.ErrRejected, err.Error())
	}
}
