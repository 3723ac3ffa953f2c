package services

import (
	"context"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// RateQuerySvcFacade serves the client-facing read paths. These paths read
// only persisted final rates, never exchange clients directly.
type RateQuerySvcFacade interface {
	// GetBestRate returns the most favorable quote for a pair, city and
	// operation, with the city markup applied.
	GetBestRate(ctx context.Context, symbol, cityCode string, op domain.Operation) (*domain.BestRate, error)

	// GetFinalRate returns the freshest final rate for base/quote,
	// optionally pinned to one source.
	GetFinalRate(ctx context.Context, base, quote, sourceCode string, allowStale bool) (*domain.FinalRate, error)

	// GetAllFinalRates returns current final rates, optionally per source.
	GetAllFinalRates(ctx context.Context, sourceCode string, allowStale bool) ([]domain.FinalRate, error)

	// GetClientRates builds the both-sides quote table for one city across
	// every enabled pair.
	GetClientRates(ctx context.Context, cityCode string) ([]domain.ClientRates, error)

	// ListPairs returns the distinct internal symbols available for quoting.
	ListPairs(ctx context.Context) ([]string, error)
}
