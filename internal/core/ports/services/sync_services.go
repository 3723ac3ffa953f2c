package services

import (
	"context"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SyncSvcFacade drives sync runs: fetch from a source, persist raw and final
// rates, and log the run.
type SyncSvcFacade interface {
	// SyncSource runs one full sync cycle for the named source. Returns
	// apperrors.ErrSyncInProgress when a run for the same source is active.
	SyncSource(ctx context.Context, sourceCode string) (*domain.SyncResult, error)

	// SyncAll runs a sync cycle for every enabled source.
	SyncAll(ctx context.Context) ([]domain.SyncResult, error)

	// ListSyncLogs returns recent sync runs, newest first, optionally
	// filtered by source code.
	ListSyncLogs(ctx context.Context, sourceCode string, limit int) ([]domain.SyncLog, error)

	// CalculateVWAP prices filling amount against one side of a source's
	// live order book and applies the markup rule governing the pair.
	CalculateVWAP(ctx context.Context, sourceCode, symbol string, op domain.Operation, amount decimal.Decimal) (*domain.VWAPQuote, error)
}

// SchedulerStatus is the orchestrator's status snapshot.
type SchedulerStatus struct {
	Running      bool                           `json:"running"`
	LastSync     map[string]time.Time           `json:"lastSyncPerSource"`
	SourceHealth map[string]domain.SourceHealth `json:"sourceHealth"`
	Config       SchedulerConfig                `json:"config"`
}

// SchedulerConfig echoes the scheduling options in effect.
type SchedulerConfig struct {
	SyncIntervalSeconds       int `json:"syncIntervalSeconds"`
	StaleThresholdSeconds     int `json:"staleThresholdSeconds"`
	StaleCheckIntervalSeconds int `json:"staleCheckIntervalSeconds"`
	HTTPTimeoutSeconds        int `json:"httpTimeoutSeconds"`
	MaxRetries                int `json:"maxRetries"`
}

// SchedulerSvcFacade controls the background sync orchestrator.
type SchedulerSvcFacade interface {
	Start(ctx context.Context)
	Stop()

	// TriggerSync runs an operator-initiated sync for one source, or all
	// sources when sourceCode is empty, under the same non-overlap rule as
	// scheduled runs.
	TriggerSync(ctx context.Context, sourceCode string) ([]domain.SyncResult, error)

	Status() SchedulerStatus
}
