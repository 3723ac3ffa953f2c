package repositories

import (
	"context"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// RateReader defines the read side of the final-rate table. Both lookups
// filter by staleness and source in a single round trip.
type RateReader interface {
	// GetFinal retrieves the freshest final rate for a base/quote pair,
	// optionally pinned to one source code. Stale rows are excluded unless
	// allowStale is set; when only a stale row exists the lookup fails with
	// apperrors.ErrStaleRate instead of apperrors.ErrNotFound.
	GetFinal(ctx context.Context, base, quote, sourceCode string, allowStale bool) (*domain.FinalRate, error)

	// GetAllFinal retrieves current final rates for every enabled pair,
	// optionally filtered by source code.
	GetAllFinal(ctx context.Context, sourceCode string, allowStale bool) ([]domain.FinalRate, error)
}

// RateWriter defines the write side of the raw- and final-rate tables.
type RateWriter interface {
	// SaveRatePair upserts the raw and final rows for one (source, pair) in
	// a single transaction so the two tables can never diverge.
	SaveRatePair(ctx context.Context, raw domain.RawRate, final domain.FinalRate) error
}

// SyncLogWriter appends audit records of sync runs.
type SyncLogWriter interface {
	AppendSyncLog(ctx context.Context, log domain.SyncLog) error
	ListSyncLogs(ctx context.Context, sourceCode string, limit int) ([]domain.SyncLog, error)
}

// StaleMarker flips the stale flag on final rates older than a threshold.
type StaleMarker interface {
	// MarkStaleOlderThan marks non-stale rows whose calculatedAt is older
	// than the threshold and returns how many rows were flipped.
	MarkStaleOlderThan(ctx context.Context, threshold time.Duration) (int64, error)
}

// RateRepositoryFacade combines all rate-store operations consumed by the
// engine. The engine issues no queries beyond this interface.
type RateRepositoryFacade interface {
	RateReader
	RateWriter
	SyncLogWriter
	StaleMarker
}
