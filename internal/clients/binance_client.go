// Package clients constructs authenticated exchange API clients.
package clients

import (
	binance "github.com/adshao/go-binance/v2"
)

// NewBinanceClient returns a Binance spot client. Empty credentials yield
// a client limited to public market data endpoints.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}
