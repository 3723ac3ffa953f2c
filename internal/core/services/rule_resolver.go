package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"golang.org/x/sync/singleflight"
)

// ruleSnapshot is one immutable build of the resolver cache. Readers get a
// pointer to the whole snapshot, never a half-updated view.
type ruleSnapshot struct {
	sources       map[string]domain.Source       // by code
	pairsBySource map[string][]domain.SourcePair // by source ID
	rules         []domain.MarkupRule            // sorted by precedence, pair first
	builtAt       time.Time
}

// RuleResolver resolves the single applicable markup rule for a
// (source, pair) tuple over a TTL-refreshed in-process cache of sources,
// source pairs and rules. Refreshes run under a single-flight guard.
type RuleResolver struct {
	repo   portsrepo.SourceReader
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	snap  *ruleSnapshot
	group singleflight.Group

	now func() time.Time
}

// NewRuleResolver creates a resolver with the given cache TTL.
func NewRuleResolver(repo portsrepo.SourceReader, ttl time.Duration, logger *slog.Logger) *RuleResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RuleResolver{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve returns the highest-precedence active rule matching the given
// source and pair, or nil when no rule matches (meaning: apply no markup).
func (r *RuleResolver) Resolve(ctx context.Context, sourceID, sourcePairID string) (*domain.MarkupRule, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	for i := range snap.rules {
		rule := snap.rules[i]
		if !rule.ActiveAt(now) {
			continue
		}
		if rule.Matches(sourceID, sourcePairID) {
			return &rule, nil
		}
	}
	return nil, nil
}

// SourceByCode returns an enabled source from the cache.
func (r *RuleResolver) SourceByCode(ctx context.Context, code string) (*domain.Source, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	src, ok := snap.sources[code]
	if !ok {
		return nil, nil
	}
	return &src, nil
}

// Sources returns all enabled sources from the cache.
func (r *RuleResolver) Sources(ctx context.Context) ([]domain.Source, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Source, 0, len(snap.sources))
	for _, s := range snap.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// PairsForSource returns the enabled pairs of one source from the cache.
func (r *RuleResolver) PairsForSource(ctx context.Context, sourceID string) ([]domain.SourcePair, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.pairsBySource[sourceID], nil
}

// ForceRefresh rebuilds the cache immediately regardless of TTL.
func (r *RuleResolver) ForceRefresh(ctx context.Context) error {
	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		return nil, r.rebuild(ctx)
	})
	return err
}

// snapshot returns the current cache, rebuilding it when it is missing or
// older than the TTL. Concurrent callers share a single in-flight rebuild.
func (r *RuleResolver) snapshot(ctx context.Context) (*ruleSnapshot, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	if snap != nil && r.now().Sub(snap.builtAt) < r.ttl {
		return snap, nil
	}

	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		// Re-check under the flight: a racing caller may have refreshed.
		r.mu.RLock()
		cur := r.snap
		r.mu.RUnlock()
		if cur != nil && r.now().Sub(cur.builtAt) < r.ttl {
			return nil, nil
		}
		return nil, r.rebuild(ctx)
	})
	if err != nil {
		// Serve the stale cache when a refresh fails but we still have one.
		if snap != nil {
			r.logger.Warn("rule cache refresh failed, serving stale cache", slog.String("error", err.Error()))
			return snap, nil
		}
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap, nil
}

func (r *RuleResolver) rebuild(ctx context.Context) error {
	sources, err := r.repo.ListEnabledSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	sourceIDs := make([]string, len(sources))
	byCode := make(map[string]domain.Source, len(sources))
	for i, s := range sources {
		sourceIDs[i] = s.SourceID
		byCode[s.Code] = s
	}

	var pairs []domain.SourcePair
	if len(sourceIDs) > 0 {
		pairs, err = r.repo.ListEnabledPairs(ctx, sourceIDs)
		if err != nil {
			return fmt.Errorf("failed to load source pairs: %w", err)
		}
	}
	pairsBySource := make(map[string][]domain.SourcePair)
	for _, p := range pairs {
		pairsBySource[p.SourceID] = append(pairsBySource[p.SourceID], p)
	}

	rules, err := r.repo.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load markup rules: %w", err)
	}
	// The repository already orders by precedence; keep a stable re-sort so
	// the resolver does not depend on it.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Level.Precedence() < rules[j].Level.Precedence()
	})

	snap := &ruleSnapshot{
		sources:       byCode,
		pairsBySource: pairsBySource,
		rules:         rules,
		builtAt:       r.now(),
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	r.logger.Info("rule cache refreshed",
		slog.Int("sources", len(sources)),
		slog.Int("pairs", len(pairs)),
		slog.Int("rules", len(rules)),
	)
	return nil
}
