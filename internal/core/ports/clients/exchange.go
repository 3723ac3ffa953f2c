package clients

import (
	"context"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// ExchangeClient is the contract every quote-source client fulfils. The
// engine does not care how a client talks to its exchange; a client's job is
// to return a normalized ticker or fail.
type ExchangeClient interface {
	// Code returns the source code this client serves, e.g. "grinex".
	Code() string

	// GetTicker fetches the ticker for one source-native symbol.
	GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error)

	// GetAllTickers fetches every ticker the exchange publishes in one call.
	// Sync runs prefer it and fan out to GetTicker only when it fails.
	GetAllTickers(ctx context.Context) (map[string]domain.Ticker, error)

	// GetOrderBook fetches depth for one symbol, used for VWAP pricing.
	GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error)

	// Health returns the client's rolling health surface.
	Health() domain.SourceHealth
}

// Registry resolves exchange clients by source code.
type Registry interface {
	Client(code string) (ExchangeClient, bool)
	Codes() []string
}
