package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxCityRepository implements the city ports using pgxpool.
type PgxCityRepository struct {
	BaseRepository
}

// newPgxCityRepository creates a new city repository.
func newPgxCityRepository(pool *pgxpool.Pool) portsrepo.CityRepositoryFacade {
	return &PgxCityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CityRepositoryFacade = (*PgxCityRepository)(nil)

const citySelect = `
	SELECT city_id, code, name, markup_buy, markup_sell, markup_fixed, enabled,
		created_at, created_by, last_updated_at, last_updated_by
	FROM cities`

func scanCity(row pgx.Row) (domain.City, error) {
	var c domain.City
	err := row.Scan(
		&c.CityID,
		&c.Code,
		&c.Name,
		&c.MarkupBuy,
		&c.MarkupSell,
		&c.MarkupFixed,
		&c.Enabled,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	return c, err
}

// FindCityByCode retrieves a city by its short code.
func (r *PgxCityRepository) FindCityByCode(ctx context.Context, code string) (*domain.City, error) {
	city, err := scanCity(r.Pool.QueryRow(ctx, citySelect+" WHERE code = $1", code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: city %s", apperrors.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to find city %s: %w", code, err)
	}
	return &city, nil
}

// ListCities retrieves cities ordered by code.
func (r *PgxCityRepository) ListCities(ctx context.Context, includeDisabled bool) ([]domain.City, error) {
	query := citySelect
	if !includeDisabled {
		query += " WHERE enabled"
	}
	query += " ORDER BY code"

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.City, error) {
		return scanCity(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan cities: %w", err)
	}
	return cities, nil
}

// FindPairMarkup retrieves a city's per-pair override for one internal
// symbol.
func (r *PgxCityRepository) FindPairMarkup(ctx context.Context, cityID, pairSymbol string) (*domain.CityPairMarkup, error) {
	query := `
		SELECT city_pair_markup_id, city_id, pair_symbol, markup_buy, markup_sell, markup_fixed,
			created_at, created_by, last_updated_at, last_updated_by
		FROM city_pair_markup
		WHERE city_id = $1 AND pair_symbol = $2;
	`
	var m domain.CityPairMarkup
	err := r.Pool.QueryRow(ctx, query, cityID, pairSymbol).Scan(
		&m.CityPairMarkupID,
		&m.CityID,
		&m.PairSymbol,
		&m.MarkupBuy,
		&m.MarkupSell,
		&m.MarkupFixed,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no pair markup for city %s and %s", apperrors.ErrNotFound, cityID, pairSymbol)
		}
		return nil, fmt.Errorf("failed to find pair markup: %w", err)
	}
	return &m, nil
}

// SaveCity inserts or updates a city.
func (r *PgxCityRepository) SaveCity(ctx context.Context, city domain.City) error {
	query := `
		INSERT INTO cities (
			city_id, code, name, markup_buy, markup_sell, markup_fixed, enabled,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (city_id) DO UPDATE SET
			name = EXCLUDED.name,
			markup_buy = EXCLUDED.markup_buy,
			markup_sell = EXCLUDED.markup_sell,
			markup_fixed = EXCLUDED.markup_fixed,
			enabled = EXCLUDED.enabled,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		city.CityID,
		city.Code,
		city.Name,
		city.MarkupBuy,
		city.MarkupSell,
		city.MarkupFixed,
		city.Enabled,
		city.CreatedAt,
		city.CreatedBy,
		city.LastUpdatedAt,
		city.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: city code %s", apperrors.ErrDuplicate, city.Code)
		}
		return fmt.Errorf("failed to save city %s: %w", city.Code, err)
	}
	return nil
}

// SavePairMarkup inserts or replaces a per-pair override. The override is
// keyed by (city, symbol), so setting it twice overwrites in place.
func (r *PgxCityRepository) SavePairMarkup(ctx context.Context, markup domain.CityPairMarkup) error {
	query := `
		INSERT INTO city_pair_markup (
			city_pair_markup_id, city_id, pair_symbol, markup_buy, markup_sell, markup_fixed,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (city_id, pair_symbol) DO UPDATE SET
			markup_buy = EXCLUDED.markup_buy,
			markup_sell = EXCLUDED.markup_sell,
			markup_fixed = EXCLUDED.markup_fixed,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		markup.CityPairMarkupID,
		markup.CityID,
		markup.PairSymbol,
		markup.MarkupBuy,
		markup.MarkupSell,
		markup.MarkupFixed,
		markup.CreatedAt,
		markup.CreatedBy,
		markup.LastUpdatedAt,
		markup.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save pair markup for city %s: %w", markup.CityID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
