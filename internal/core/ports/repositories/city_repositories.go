package repositories

import (
	"context"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// CityReader defines reads of retail locations and their markups.
type CityReader interface {
	FindCityByCode(ctx context.Context, code string) (*domain.City, error)
	ListCities(ctx context.Context, includeDisabled bool) ([]domain.City, error)

	// FindPairMarkup returns the per-pair override for a city and internal
	// symbol, or apperrors.ErrNotFound when the city's blanket markup applies.
	FindPairMarkup(ctx context.Context, cityID, pairSymbol string) (*domain.CityPairMarkup, error)
}

// CityWriter defines admin-side mutations of cities and overrides.
type CityWriter interface {
	SaveCity(ctx context.Context, city domain.City) error
	SavePairMarkup(ctx context.Context, markup domain.CityPairMarkup) error
}

// CityRepositoryFacade combines all city-related repository operations.
type CityRepositoryFacade interface {
	CityReader
	CityWriter
}
