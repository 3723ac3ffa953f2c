package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
	"github.com/google/uuid"
)

// CityService manages retail locations and their markup overrides.
type CityService struct {
	repo   portsrepo.CityRepositoryFacade
	logger *slog.Logger
}

// NewCityService creates a new CityService.
func NewCityService(repo portsrepo.CityRepositoryFacade, logger *slog.Logger) *CityService {
	return &CityService{repo: repo, logger: logger}
}

// CreateCity validates and persists a new city.
func (s *CityService) CreateCity(ctx context.Context, req dto.CreateCityRequest, creatorUserID string) (*domain.City, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: city code is required", apperrors.ErrValidation)
	}
	if existing, err := s.repo.FindCityByCode(ctx, code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: city code %q already exists", apperrors.ErrDuplicate, code)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	city := domain.City{
		CityID:      uuid.NewString(),
		Code:        code,
		Name:        req.Name,
		MarkupBuy:   req.MarkupBuy,
		MarkupSell:  req.MarkupSell,
		MarkupFixed: req.MarkupFixed,
		Enabled:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.repo.SaveCity(ctx, city); err != nil {
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	return &city, nil
}

// UpdateCity applies partial updates to an existing city.
func (s *CityService) UpdateCity(ctx context.Context, cityCode string, req dto.UpdateCityRequest, updaterUserID string) (*domain.City, error) {
	city, err := s.repo.FindCityByCode(ctx, strings.ToLower(cityCode))
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		city.Name = *req.Name
	}
	if req.MarkupBuy != nil {
		city.MarkupBuy = *req.MarkupBuy
	}
	if req.MarkupSell != nil {
		city.MarkupSell = *req.MarkupSell
	}
	if req.MarkupFixed != nil {
		city.MarkupFixed = *req.MarkupFixed
	}
	if req.Enabled != nil {
		city.Enabled = *req.Enabled
	}
	city.LastUpdatedAt = time.Now()
	city.LastUpdatedBy = updaterUserID

	if err := s.repo.SaveCity(ctx, *city); err != nil {
		return nil, fmt.Errorf("failed to update city: %w", err)
	}
	return city, nil
}

// ListCities returns cities ordered by code.
func (s *CityService) ListCities(ctx context.Context, includeDisabled bool) ([]domain.City, error) {
	return s.repo.ListCities(ctx, includeDisabled)
}

// GetCity returns one city by code.
func (s *CityService) GetCity(ctx context.Context, code string) (*domain.City, error) {
	return s.repo.FindCityByCode(ctx, strings.ToLower(code))
}

// SetPairMarkup creates or replaces a city's per-pair markup override.
func (s *CityService) SetPairMarkup(ctx context.Context, cityCode string, req dto.SetCityPairMarkupRequest, updaterUserID string) (*domain.CityPairMarkup, error) {
	city, err := s.repo.FindCityByCode(ctx, strings.ToLower(cityCode))
	if err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.PairSymbol))
	if !strings.Contains(symbol, "/") {
		return nil, fmt.Errorf("%w: pair symbol must look like BASE/QUOTE", apperrors.ErrValidation)
	}

	now := time.Now()
	markup := domain.CityPairMarkup{
		CityPairMarkupID: uuid.NewString(),
		CityID:           city.CityID,
		PairSymbol:       symbol,
		MarkupBuy:        req.MarkupBuy,
		MarkupSell:       req.MarkupSell,
		MarkupFixed:      req.MarkupFixed,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     updaterUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: updaterUserID,
		},
	}
	if err := s.repo.SavePairMarkup(ctx, markup); err != nil {
		return nil, fmt.Errorf("failed to save city pair markup: %w", err)
	}
	return &markup, nil
}
