package services

import (
	"log/slog"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/clients"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
	"github.com/EG0RIAN/tg-exhange-bot/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	registry clients.Registry,
	cache clients.TickerCache,
	logger *slog.Logger,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The resolver is shared: sync runs resolve rules through it and the
	// admin rule service invalidates it on every mutation.
	resolver := NewRuleResolver(repos.SourceRepo, cfg.RuleCacheTTL, logger)

	container.Rates = NewRateQueryService(repos.RateRepo, repos.SourceRepo, repos.CityRepo, logger)

	syncSvc := NewSyncService(resolver, repos.RateRepo, registry, cache, SyncConfig{
		MaxConcurrent: cfg.MaxConcurrentPairs,
		RunTimeout:    cfg.HTTPTimeout * 6,
	}, logger)
	container.Sync = syncSvc

	container.Scheduler = NewScheduler(syncSvc, repos.RateRepo, registry, portssvc.SchedulerConfig{
		SyncIntervalSeconds:       int(cfg.SyncInterval.Seconds()),
		StaleThresholdSeconds:     int(cfg.StaleThreshold.Seconds()),
		StaleCheckIntervalSeconds: int(cfg.StaleCheckInterval.Seconds()),
		HTTPTimeoutSeconds:        int(cfg.HTTPTimeout.Seconds()),
		MaxRetries:                cfg.MaxRetries,
	}, logger)

	container.Rules = NewRuleService(repos.SourceRepo, resolver, logger)
	container.Cities = NewCityService(repos.CityRepo, logger)

	return container
}

// Compile-time interface checks.
var (
	_ portssvc.RateQuerySvcFacade = (*RateQueryService)(nil)
	_ portssvc.SyncSvcFacade      = (*SyncService)(nil)
	_ portssvc.SchedulerSvcFacade = (*Scheduler)(nil)
	_ portssvc.RuleSvcFacade      = (*RuleService)(nil)
	_ portssvc.CitySvcFacade      = (*CityService)(nil)
)
