package services

import (
	"context"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
)

// RuleSvcFacade manages markup rules for the staff console.
type RuleSvcFacade interface {
	CreateRule(ctx context.Context, req dto.CreateMarkupRuleRequest, creatorUserID string) (*domain.MarkupRule, error)
	UpdateRule(ctx context.Context, ruleID string, req dto.UpdateMarkupRuleRequest, updaterUserID string) (*domain.MarkupRule, error)
	DeleteRule(ctx context.Context, ruleID string, deleterUserID string) error
	ListRules(ctx context.Context, includeDeleted bool) ([]domain.MarkupRule, error)
	GetRule(ctx context.Context, ruleID string) (*domain.MarkupRule, error)
}

// CitySvcFacade manages retail locations and their markups.
type CitySvcFacade interface {
	CreateCity(ctx context.Context, req dto.CreateCityRequest, creatorUserID string) (*domain.City, error)
	UpdateCity(ctx context.Context, code string, req dto.UpdateCityRequest, updaterUserID string) (*domain.City, error)
	ListCities(ctx context.Context, includeDisabled bool) ([]domain.City, error)
	GetCity(ctx context.Context, code string) (*domain.City, error)
	SetPairMarkup(ctx context.Context, code string, req dto.SetCityPairMarkupRequest, updaterUserID string) (*domain.CityPairMarkup, error)
}
