package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSourceRepository implements the source, pair and rule ports using pgxpool.
type PgxSourceRepository struct {
	BaseRepository
}

// newPgxSourceRepository creates a new source repository.
func newPgxSourceRepository(pool *pgxpool.Pool) portsrepo.SourceRepositoryFacade {
	return &PgxSourceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SourceRepositoryFacade = (*PgxSourceRepository)(nil)

// ListEnabledSources retrieves all enabled sources ordered by code.
func (r *PgxSourceRepository) ListEnabledSources(ctx context.Context) ([]domain.Source, error) {
	query := `
		SELECT source_id, code, name, enabled, api_base_url,
			created_at, created_by, last_updated_at, last_updated_by
		FROM fx_source
		WHERE enabled
		ORDER BY code;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Source, error) {
		var s domain.Source
		err := row.Scan(
			&s.SourceID,
			&s.Code,
			&s.Name,
			&s.Enabled,
			&s.APIBaseURL,
			&s.CreatedAt,
			&s.CreatedBy,
			&s.LastUpdatedAt,
			&s.LastUpdatedBy,
		)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sources: %w", err)
	}
	return sources, nil
}

// ListEnabledPairs retrieves enabled pairs for the given source IDs in one
// query.
func (r *PgxSourceRepository) ListEnabledPairs(ctx context.Context, sourceIDs []string) ([]domain.SourcePair, error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT source_pair_id, source_id, source_symbol, internal_symbol,
			base_currency, quote_currency, enabled,
			created_at, created_by, last_updated_at, last_updated_by
		FROM fx_source_pair
		WHERE enabled AND source_id = ANY($1)
		ORDER BY source_id, internal_symbol;
	`
	rows, err := r.Pool.Query(ctx, query, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query source pairs: %w", err)
	}
	defer rows.Close()

	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SourcePair, error) {
		var p domain.SourcePair
		err := row.Scan(
			&p.SourcePairID,
			&p.SourceID,
			&p.SourceSymbol,
			&p.InternalSymbol,
			&p.BaseCurrency,
			&p.QuoteCurrency,
			&p.Enabled,
			&p.CreatedAt,
			&p.CreatedBy,
			&p.LastUpdatedAt,
			&p.LastUpdatedBy,
		)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source pairs: %w", err)
	}
	return pairs, nil
}

const markupRuleSelect = `
	SELECT rule_id, level, source_id, source_pair_id, percent, fixed,
		rounding_mode, round_to, enabled, valid_from, valid_to, description,
		deleted_at, created_at, created_by, last_updated_at, last_updated_by
	FROM fx_markup_rule`

func scanMarkupRule(row pgx.Row) (domain.MarkupRule, error) {
	var m domain.MarkupRule
	err := row.Scan(
		&m.RuleID,
		&m.Level,
		&m.SourceID,
		&m.SourcePairID,
		&m.Percent,
		&m.Fixed,
		&m.RoundingMode,
		&m.RoundTo,
		&m.Enabled,
		&m.ValidFrom,
		&m.ValidTo,
		&m.Description,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectMarkupRules(rows pgx.Rows) ([]domain.MarkupRule, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MarkupRule, error) {
		return scanMarkupRule(row)
	})
}

// ListActiveRules retrieves enabled, non-deleted rules ordered by
// precedence: pair first, then source, then global.
func (r *PgxSourceRepository) ListActiveRules(ctx context.Context) ([]domain.MarkupRule, error) {
	query := markupRuleSelect + `
		WHERE enabled AND deleted_at IS NULL
		ORDER BY CASE level WHEN 'pair' THEN 1 WHEN 'source' THEN 2 ELSE 3 END, created_at;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active rules: %w", err)
	}
	defer rows.Close()

	rules, err := collectMarkupRules(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan active rules: %w", err)
	}
	return rules, nil
}

// ListInternalSymbols retrieves the distinct internal symbols of all enabled
// pairs on enabled sources.
func (r *PgxSourceRepository) ListInternalSymbols(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT p.internal_symbol
		FROM fx_source_pair p
		JOIN fx_source s ON s.source_id = p.source_id
		WHERE p.enabled AND s.enabled
		ORDER BY p.internal_symbol;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query internal symbols: %w", err)
	}
	defer rows.Close()

	symbols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan internal symbols: %w", err)
	}
	return symbols, nil
}

// SaveRule inserts or updates a markup rule.
func (r *PgxSourceRepository) SaveRule(ctx context.Context, rule domain.MarkupRule) error {
	query := `
		INSERT INTO fx_markup_rule (
			rule_id, level, source_id, source_pair_id, percent, fixed,
			rounding_mode, round_to, enabled, valid_from, valid_to, description,
			deleted_at, created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (rule_id) DO UPDATE SET
			percent = EXCLUDED.percent,
			fixed = EXCLUDED.fixed,
			rounding_mode = EXCLUDED.rounding_mode,
			round_to = EXCLUDED.round_to,
			enabled = EXCLUDED.enabled,
			valid_from = EXCLUDED.valid_from,
			valid_to = EXCLUDED.valid_to,
			description = EXCLUDED.description,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		rule.RuleID,
		rule.Level,
		rule.SourceID,
		rule.SourcePairID,
		rule.Percent,
		rule.Fixed,
		rule.RoundingMode,
		rule.RoundTo,
		rule.Enabled,
		rule.ValidFrom,
		rule.ValidTo,
		rule.Description,
		rule.DeletedAt,
		rule.CreatedAt,
		rule.CreatedBy,
		rule.LastUpdatedAt,
		rule.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save markup rule %s: %w", rule.RuleID, err)
	}
	return nil
}

// SoftDeleteRule marks a rule deleted. Final rates keep referencing the
// tombstone for audit.
func (r *PgxSourceRepository) SoftDeleteRule(ctx context.Context, ruleID string, deletedBy string) error {
	now := time.Now()
	tag, err := r.Pool.Exec(ctx, `
		UPDATE fx_markup_rule
		SET deleted_at = $1, enabled = false, last_updated_at = $1, last_updated_by = $2
		WHERE rule_id = $3 AND deleted_at IS NULL`,
		now, deletedBy, ruleID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete markup rule %s: %w", ruleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: markup rule %s", apperrors.ErrNotFound, ruleID)
	}
	return nil
}

// ListRules retrieves all rules, optionally including soft-deleted ones.
func (r *PgxSourceRepository) ListRules(ctx context.Context, includeDeleted bool) ([]domain.MarkupRule, error) {
	query := markupRuleSelect
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query markup rules: %w", err)
	}
	defer rows.Close()

	rules, err := collectMarkupRules(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan markup rules: %w", err)
	}
	return rules, nil
}

// FindRuleByID retrieves one rule by its ID.
func (r *PgxSourceRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.MarkupRule, error) {
	rule, err := scanMarkupRule(r.Pool.QueryRow(ctx, markupRuleSelect+" WHERE rule_id = $1", ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: markup rule %s", apperrors.ErrNotFound, ruleID)
		}
		return nil, fmt.Errorf("failed to find markup rule %s: %w", ruleID, err)
	}
	return &rule, nil
}
