package clients

import (
	"context"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// TickerCache keeps the last known ticker per source and symbol so a source
// outage can be bridged with slightly older data before falling back to the
// database. Implementations are best-effort; callers tolerate misses.
type TickerCache interface {
	SetTicker(ctx context.Context, sourceCode string, ticker domain.Ticker) error

	// GetTicker returns the cached ticker or apperrors.ErrNotFound.
	GetTicker(ctx context.Context, sourceCode, symbol string) (*domain.Ticker, error)
}
