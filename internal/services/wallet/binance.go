package wallet

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BinanceWallet reads spot account balances from Binance.
type BinanceWallet struct {
	client *binance.Client
}

// NewBinanceWallet returns a wallet backed by the given Binance client.
func NewBinanceWallet(client *binance.Client) *BinanceWallet {
	return &BinanceWallet{client: client}
}

// Balances returns the free balance per asset. Zero balances are omitted.
func (w *BinanceWallet) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	account, err := w.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get binance account balances")
	}

	balances := make(map[string]decimal.Decimal, len(account.Balances))
	for _, balance := range account.Balances {
		free, err := decimal.NewFromString(balance.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse balance for %s", balance.Asset)
		}
		if free.IsPositive() {
			balances[balance.Asset] = free
		}
	}
	return balances, nil
}
