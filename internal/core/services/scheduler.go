package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/clients"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
)

// Scheduler is the timer-driven sync orchestrator. It runs one sync cycle
// across all sources on a fixed interval and an independent staleness sweep
// on its own interval. The sweep may run while a sync is in flight; the only
// cross-run guarantee is the per-source non-overlap enforced by SyncService.
type Scheduler struct {
	syncSvc   portssvc.SyncSvcFacade
	staleRepo portsrepo.StaleMarker
	registry  clients.Registry
	cfg       portssvc.SchedulerConfig
	logger    *slog.Logger

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	lastSync map[string]time.Time
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(
	syncSvc portssvc.SyncSvcFacade,
	staleRepo portsrepo.StaleMarker,
	registry clients.Registry,
	cfg portssvc.SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		syncSvc:   syncSvc,
		staleRepo: staleRepo,
		registry:  registry,
		cfg:       cfg,
		logger:    logger,
		lastSync:  make(map[string]time.Time),
	}
}

// Start launches the sync loop and the staleness sweep. The first sync and
// the first sweep run immediately rather than waiting a full interval.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("scheduler already running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.logger.Info("starting rate sync scheduler",
		slog.Int("sync_interval_seconds", s.cfg.SyncIntervalSeconds),
		slog.Int("stale_check_interval_seconds", s.cfg.StaleCheckIntervalSeconds),
	)

	go s.syncLoop(ctx, stop)
	go s.sweepLoop(ctx, stop)
}

// Stop halts both loops. In-flight runs finish; nothing new is scheduled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
	s.logger.Info("rate sync scheduler stopped")
}

func (s *Scheduler) syncLoop(ctx context.Context, stop <-chan struct{}) {
	interval := time.Duration(s.cfg.SyncIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runSyncCycle(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSyncCycle(ctx)
		}
	}
}

func (s *Scheduler) sweepLoop(ctx context.Context, stop <-chan struct{}) {
	interval := time.Duration(s.cfg.StaleCheckIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runStaleSweep(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runStaleSweep(ctx)
		}
	}
}

func (s *Scheduler) runSyncCycle(ctx context.Context) {
	results, err := s.syncSvc.SyncAll(ctx)
	if err != nil {
		s.logger.Error("sync cycle failed", slog.String("error", err.Error()))
		return
	}
	now := time.Now()
	s.mu.Lock()
	for _, res := range results {
		s.lastSync[res.SourceCode] = now
	}
	s.mu.Unlock()

	for _, res := range results {
		switch res.Status {
		case domain.SyncStatusSuccess:
			s.logger.Info("sync completed",
				slog.String("source", res.SourceCode),
				slog.Int("pairs", res.PairsProcessed),
				slog.Int64("duration_ms", res.DurationMs),
			)
		case domain.SyncStatusPartial:
			s.logger.Warn("sync completed with failures",
				slog.String("source", res.SourceCode),
				slog.Int("succeeded", res.PairsSucceeded),
				slog.Int("failed", res.PairsFailed),
			)
		default:
			s.logger.Error("sync failed",
				slog.String("source", res.SourceCode),
				slog.Any("errors", res.Errors),
			)
		}
	}
}

func (s *Scheduler) runStaleSweep(ctx context.Context) {
	threshold := time.Duration(s.cfg.StaleThresholdSeconds) * time.Second
	marked, err := s.staleRepo.MarkStaleOlderThan(ctx, threshold)
	if err != nil {
		s.logger.Error("stale sweep failed", slog.String("error", err.Error()))
		return
	}
	if marked > 0 {
		s.logger.Warn("marked rates as stale", slog.Int64("count", marked))
	}
}

// TriggerSync runs an operator-initiated sync for one source, or for all
// sources when sourceCode is empty. The per-source non-overlap rule applies
// exactly as for scheduled runs.
func (s *Scheduler) TriggerSync(ctx context.Context, sourceCode string) ([]domain.SyncResult, error) {
	if sourceCode == "" {
		s.logger.Info("manual sync triggered for all sources")
		results, err := s.syncSvc.SyncAll(ctx)
		if err != nil {
			return nil, err
		}
		s.recordSyncTimes(results)
		return results, nil
	}

	s.logger.Info("manual sync triggered", slog.String("source", sourceCode))
	res, err := s.syncSvc.SyncSource(ctx, sourceCode)
	if err != nil {
		return nil, err
	}
	results := []domain.SyncResult{*res}
	s.recordSyncTimes(results)
	return results, nil
}

func (s *Scheduler) recordSyncTimes(results []domain.SyncResult) {
	now := time.Now()
	s.mu.Lock()
	for _, res := range results {
		s.lastSync[res.SourceCode] = now
	}
	s.mu.Unlock()
}

// Status returns a snapshot of the scheduler state, the last sync time per
// source and each exchange client's health surface.
func (s *Scheduler) Status() portssvc.SchedulerStatus {
	s.mu.Lock()
	last := make(map[string]time.Time, len(s.lastSync))
	for code, t := range s.lastSync {
		last[code] = t
	}
	running := s.running
	s.mu.Unlock()

	health := make(map[string]domain.SourceHealth)
	for _, code := range s.registry.Codes() {
		if client, ok := s.registry.Client(code); ok {
			health[code] = client.Health()
		}
	}

	return portssvc.SchedulerStatus{
		Running:      running,
		LastSync:     last,
		SourceHealth: health,
		Config:       s.cfg,
	}
}
