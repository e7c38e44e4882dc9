package wallet

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BybitWallet reads unified account balances from Bybit.
type BybitWallet struct {
	client *bybit.Client
}

// NewBybitWallet returns a wallet backed by the given Bybit client.
func NewBybitWallet(client *bybit.Client) *BybitWallet {
	return &BybitWallet{client: client}
}

// Balances returns the wallet balance per coin. Zero balances are omitted.
func (w *BybitWallet) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	res, err := w.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit wallet balance")
	}
	if len(res.Result.List) == 0 {
		return nil, errors.New("bybit API returned empty wallet balance list")
	}

	balances := make(map[string]decimal.Decimal)
	for _, coin := range res.Result.List[0].Coin {
		free, err := decimal.NewFromString(coin.WalletBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse balance for %s", coin.Coin)
		}
		if free.IsPositive() {
			balances[string(coin.Coin)] = free
		}
	}
	return balances, nil
}
