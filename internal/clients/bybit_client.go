package clients

import (
	bybit "github.com/hirokisan/bybit/v2"
)

// NewBybitClient returns an authenticated Bybit V5 client.
func NewBybitClient(apiKey, apiSecret string) *bybit.Client {
	return bybit.NewClient().WithAuth(apiKey, apiSecret)
}
