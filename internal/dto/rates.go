package dto

import (
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FinalRateResponse is the API shape of one persisted final rate.
type FinalRateResponse struct {
	SourceCode     string           `json:"sourceCode"`
	InternalSymbol string           `json:"internalSymbol"`
	BaseCurrency   string           `json:"baseCurrency"`
	QuoteCurrency  string           `json:"quoteCurrency"`
	RawPrice       decimal.Decimal  `json:"rawPrice"`
	FinalPrice     decimal.Decimal  `json:"finalPrice"`
	Bid            *decimal.Decimal `json:"bid,omitempty"`
	Ask            *decimal.Decimal `json:"ask,omitempty"`
	AppliedRuleID  *string          `json:"appliedRuleID,omitempty"`
	MarkupPercent  decimal.Decimal  `json:"markupPercent"`
	MarkupFixed    decimal.Decimal  `json:"markupFixed"`
	CalculatedAt   time.Time        `json:"calculatedAt"`
	Stale          bool             `json:"stale"`
}

// ToFinalRateResponse converts a domain final rate to its API shape.
func ToFinalRateResponse(r *domain.FinalRate) FinalRateResponse {
	resp := FinalRateResponse{
		SourceCode:     r.SourceCode,
		InternalSymbol: r.InternalSymbol,
		BaseCurrency:   r.BaseCurrency,
		QuoteCurrency:  r.QuoteCurrency,
		RawPrice:       r.RawPrice,
		FinalPrice:     r.FinalPrice,
		AppliedRuleID:  r.AppliedRuleID,
		MarkupPercent:  r.MarkupPercent,
		MarkupFixed:    r.MarkupFixed,
		CalculatedAt:   r.CalculatedAt,
		Stale:          r.Stale,
	}
	if r.Bid.Valid {
		bid := r.Bid.Decimal
		resp.Bid = &bid
	}
	if r.Ask.Valid {
		ask := r.Ask.Decimal
		resp.Ask = &ask
	}
	return resp
}

// BestRateResponse is the API shape of a customer quote.
type BestRateResponse struct {
	Symbol        string                     `json:"symbol"`
	City          string                     `json:"city"`
	CityName      string                     `json:"cityName"`
	Operation     string                     `json:"operation"`
	BestSource    string                     `json:"bestSource"`
	BaseRate      decimal.Decimal            `json:"baseRate"`
	FinalRate     decimal.Decimal            `json:"finalRate"`
	MarkupPercent decimal.Decimal            `json:"markupPercent"`
	MarkupFixed   decimal.Decimal            `json:"markupFixed"`
	SourceRates   map[string]decimal.Decimal `json:"sourceRates,omitempty"`
	CalculatedAt  time.Time                  `json:"calculatedAt"`
}

// ToBestRateResponse converts a domain best rate to its API shape.
func ToBestRateResponse(b *domain.BestRate) BestRateResponse {
	return BestRateResponse{
		Symbol:        b.Symbol,
		City:          b.City,
		CityName:      b.CityName,
		Operation:     string(b.Operation),
		BestSource:    b.BestSource,
		BaseRate:      b.BaseRate,
		FinalRate:     b.FinalRate,
		MarkupPercent: b.MarkupPercent,
		MarkupFixed:   b.MarkupFixed,
		SourceRates:   b.SourceRates,
		CalculatedAt:  b.CalculatedAt,
	}
}
