package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRateRepository implements the rate-store ports using pgxpool.
// fx_raw_rate and fx_final_rate each hold exactly one row per
// (source, pair); writes are upserts and reads join the source and pair
// catalogs so enabled filters and symbols stay in one place.
type PgxRateRepository struct {
	BaseRepository
}

// newPgxRateRepository creates a new rate repository.
func newPgxRateRepository(pool *pgxpool.Pool) portsrepo.RateRepositoryFacade {
	return &PgxRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RateRepositoryFacade = (*PgxRateRepository)(nil)

const upsertRawRateQuery = `
	INSERT INTO fx_raw_rate (source_id, source_pair_id, price, bid, ask, volume_24h, metadata, received_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (source_id, source_pair_id) DO UPDATE SET
		price = EXCLUDED.price,
		bid = EXCLUDED.bid,
		ask = EXCLUDED.ask,
		volume_24h = EXCLUDED.volume_24h,
		metadata = EXCLUDED.metadata,
		received_at = EXCLUDED.received_at;
`

const upsertFinalRateQuery = `
	INSERT INTO fx_final_rate (
		source_id, source_pair_id, raw_price, final_price, bid, ask,
		applied_rule_id, markup_percent, markup_fixed, calculated_at, stale
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (source_id, source_pair_id) DO UPDATE SET
		raw_price = EXCLUDED.raw_price,
		final_price = EXCLUDED.final_price,
		bid = EXCLUDED.bid,
		ask = EXCLUDED.ask,
		applied_rule_id = EXCLUDED.applied_rule_id,
		markup_percent = EXCLUDED.markup_percent,
		markup_fixed = EXCLUDED.markup_fixed,
		calculated_at = EXCLUDED.calculated_at,
		stale = EXCLUDED.stale;
`

// SaveRatePair upserts the raw and final rows for one pair in a single
// transaction. A failure rolls back both so the tables never go out of step.
func (r *PgxRateRepository) SaveRatePair(ctx context.Context, raw domain.RawRate, final domain.FinalRate) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	_, err = tx.Exec(ctx, upsertRawRateQuery,
		raw.SourceID,
		raw.SourcePairID,
		raw.Price,
		raw.Bid,
		raw.Ask,
		raw.Volume24h,
		raw.Metadata,
		raw.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert raw rate for pair %s: %w", raw.SourcePairID, err)
	}

	_, err = tx.Exec(ctx, upsertFinalRateQuery,
		final.SourceID,
		final.SourcePairID,
		final.RawPrice,
		final.FinalPrice,
		final.Bid,
		final.Ask,
		final.AppliedRuleID,
		final.MarkupPercent,
		final.MarkupFixed,
		final.CalculatedAt,
		final.Stale,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert final rate for pair %s: %w", final.SourcePairID, err)
	}

	return r.Commit(ctx, tx)
}

const finalRateSelect = `
	SELECT fr.source_id, s.code, fr.source_pair_id, p.internal_symbol,
		p.base_currency, p.quote_currency, fr.raw_price, fr.final_price,
		fr.bid, fr.ask, fr.applied_rule_id, fr.markup_percent,
		fr.markup_fixed, fr.calculated_at, fr.stale
	FROM fx_final_rate fr
	JOIN fx_source s ON s.source_id = fr.source_id
	JOIN fx_source_pair p ON p.source_pair_id = fr.source_pair_id
	WHERE s.enabled AND p.enabled`

func scanFinalRate(row pgx.Row) (domain.FinalRate, error) {
	var fr domain.FinalRate
	err := row.Scan(
		&fr.SourceID,
		&fr.SourceCode,
		&fr.SourcePairID,
		&fr.InternalSymbol,
		&fr.BaseCurrency,
		&fr.QuoteCurrency,
		&fr.RawPrice,
		&fr.FinalPrice,
		&fr.Bid,
		&fr.Ask,
		&fr.AppliedRuleID,
		&fr.MarkupPercent,
		&fr.MarkupFixed,
		&fr.CalculatedAt,
		&fr.Stale,
	)
	return fr, err
}

// GetFinal retrieves the freshest final rate for a base/quote pair,
// optionally pinned to one source code. When the only row on record is
// stale and allowStale is off the lookup fails with apperrors.ErrStaleRate.
func (r *PgxRateRepository) GetFinal(ctx context.Context, base, quote, sourceCode string, allowStale bool) (*domain.FinalRate, error) {
	fr, err := r.getFinal(ctx, base, quote, sourceCode, allowStale)
	if err == nil {
		return fr, nil
	}
	if !allowStale && errors.Is(err, apperrors.ErrNotFound) {
		// Tell the caller a stale row exists rather than claiming no rate
		// at all.
		if stale, serr := r.getFinal(ctx, base, quote, sourceCode, true); serr == nil {
			return nil, fmt.Errorf("%w: %s/%s last calculated at %s",
				apperrors.ErrStaleRate, base, quote, stale.CalculatedAt.Format(time.RFC3339))
		}
	}
	return nil, err
}

func (r *PgxRateRepository) getFinal(ctx context.Context, base, quote, sourceCode string, allowStale bool) (*domain.FinalRate, error) {
	query := finalRateSelect + `
		AND p.base_currency = $1 AND p.quote_currency = $2`
	args := []any{strings.ToUpper(base), strings.ToUpper(quote)}
	if sourceCode != "" {
		args = append(args, sourceCode)
		query += fmt.Sprintf(" AND s.code = $%d", len(args))
	}
	if !allowStale {
		query += " AND NOT fr.stale"
	}
	query += " ORDER BY fr.calculated_at DESC LIMIT 1"

	fr, err := scanFinalRate(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no final rate for %s/%s", apperrors.ErrNotFound, base, quote)
		}
		return nil, fmt.Errorf("failed to query final rate for %s/%s: %w", base, quote, err)
	}
	return &fr, nil
}

// GetAllFinal retrieves current final rates for every enabled pair,
// optionally filtered by source code.
func (r *PgxRateRepository) GetAllFinal(ctx context.Context, sourceCode string, allowStale bool) ([]domain.FinalRate, error) {
	query := finalRateSelect
	var args []any
	if sourceCode != "" {
		args = append(args, sourceCode)
		query += fmt.Sprintf(" AND s.code = $%d", len(args))
	}
	if !allowStale {
		query += " AND NOT fr.stale"
	}
	query += " ORDER BY s.code, p.internal_symbol"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query final rates: %w", err)
	}
	defer rows.Close()

	rates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FinalRate, error) {
		return scanFinalRate(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan final rates: %w", err)
	}
	return rates, nil
}

// AppendSyncLog records one sync run.
func (r *PgxRateRepository) AppendSyncLog(ctx context.Context, log domain.SyncLog) error {
	query := `
		INSERT INTO fx_sync_log (
			sync_log_id, source_id, started_at, finished_at, status,
			pairs_processed, pairs_succeeded, pairs_failed, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		log.SyncLogID,
		log.SourceID,
		log.StartedAt,
		log.FinishedAt,
		log.Status,
		log.PairsProcessed,
		log.PairsSucceeded,
		log.PairsFailed,
		log.DurationMs,
		log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append sync log: %w", err)
	}
	return nil
}

// ListSyncLogs returns the most recent sync runs, newest first.
func (r *PgxRateRepository) ListSyncLogs(ctx context.Context, sourceCode string, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT l.sync_log_id, l.source_id, l.started_at, l.finished_at, l.status,
			l.pairs_processed, l.pairs_succeeded, l.pairs_failed, l.duration_ms, l.error_message
		FROM fx_sync_log l
		JOIN fx_source s ON s.source_id = l.source_id`
	args := []any{limit}
	if sourceCode != "" {
		args = append(args, sourceCode)
		query += fmt.Sprintf(" WHERE s.code = $%d", len(args))
	}
	query += " ORDER BY l.started_at DESC LIMIT $1"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SyncLog, error) {
		var l domain.SyncLog
		err := row.Scan(
			&l.SyncLogID,
			&l.SourceID,
			&l.StartedAt,
			&l.FinishedAt,
			&l.Status,
			&l.PairsProcessed,
			&l.PairsSucceeded,
			&l.PairsFailed,
			&l.DurationMs,
			&l.ErrorMessage,
		)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync logs: %w", err)
	}
	return logs, nil
}

// MarkStaleOlderThan flips the stale flag on final rates calculated before
// now minus threshold and returns the number of rows flipped.
func (r *PgxRateRepository) MarkStaleOlderThan(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)
	tag, err := r.Pool.Exec(ctx,
		`UPDATE fx_final_rate SET stale = true WHERE NOT stale AND calculated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale rates: %w", err)
	}
	return tag.RowsAffected(), nil
}
