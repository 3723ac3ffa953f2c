package repositories

import (
	"context"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// SourceReader defines the reads backing the rule-resolver cache.
type SourceReader interface {
	// ListEnabledSources returns all enabled sources.
	ListEnabledSources(ctx context.Context) ([]domain.Source, error)

	// ListEnabledPairs returns enabled pairs for the given source IDs in one
	// query, avoiding an N+1 fan-out across sources.
	ListEnabledPairs(ctx context.Context, sourceIDs []string) ([]domain.SourcePair, error)

	// ListActiveRules returns enabled, non-deleted markup rules ordered by
	// precedence (pair, then source, then global).
	ListActiveRules(ctx context.Context) ([]domain.MarkupRule, error)

	// ListInternalSymbols returns the distinct internal symbols of all
	// enabled pairs.
	ListInternalSymbols(ctx context.Context) ([]string, error)
}

// RuleWriter defines admin-side mutations of markup rules. Rules are
// soft-deleted, never removed while referenced by final rates.
type RuleWriter interface {
	SaveRule(ctx context.Context, rule domain.MarkupRule) error
	SoftDeleteRule(ctx context.Context, ruleID string, deletedBy string) error
	ListRules(ctx context.Context, includeDeleted bool) ([]domain.MarkupRule, error)
	FindRuleByID(ctx context.Context, ruleID string) (*domain.MarkupRule, error)
}

// SourceRepositoryFacade combines source, pair and rule operations.
type SourceRepositoryFacade interface {
	SourceReader
	RuleWriter
}
