package dto

import (
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCityRequest defines the payload for onboarding a retail location.
type CreateCityRequest struct {
	Code        string          `json:"code" binding:"required,lowercase"`
	Name        string          `json:"name" binding:"required"`
	MarkupBuy   decimal.Decimal `json:"markupBuy"`
	MarkupSell  decimal.Decimal `json:"markupSell"`
	MarkupFixed decimal.Decimal `json:"markupFixed"`
}

// UpdateCityRequest defines the editable fields of a city.
type UpdateCityRequest struct {
	Name        *string          `json:"name,omitempty"`
	MarkupBuy   *decimal.Decimal `json:"markupBuy,omitempty"`
	MarkupSell  *decimal.Decimal `json:"markupSell,omitempty"`
	MarkupFixed *decimal.Decimal `json:"markupFixed,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
}

// SetCityPairMarkupRequest sets a per-pair markup override for a city.
type SetCityPairMarkupRequest struct {
	PairSymbol  string          `json:"pairSymbol" binding:"required"`
	MarkupBuy   decimal.Decimal `json:"markupBuy"`
	MarkupSell  decimal.Decimal `json:"markupSell"`
	MarkupFixed decimal.Decimal `json:"markupFixed"`
}

// CityResponse is the API shape of a city.
type CityResponse struct {
	CityID      string          `json:"cityID"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	MarkupBuy   decimal.Decimal `json:"markupBuy"`
	MarkupSell  decimal.Decimal `json:"markupSell"`
	MarkupFixed decimal.Decimal `json:"markupFixed"`
	Enabled     bool            `json:"enabled"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUpdated time.Time       `json:"lastUpdatedAt"`
}

// ToCityResponse converts a domain city to its API shape.
func ToCityResponse(c *domain.City) CityResponse {
	return CityResponse{
		CityID:      c.CityID,
		Code:        c.Code,
		Name:        c.Name,
		MarkupBuy:   c.MarkupBuy,
		MarkupSell:  c.MarkupSell,
		MarkupFixed: c.MarkupFixed,
		Enabled:     c.Enabled,
		CreatedAt:   c.CreatedAt,
		LastUpdated: c.LastUpdatedAt,
	}
}
