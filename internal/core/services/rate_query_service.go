package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// RateQueryService serves client-facing quote reads. It reads only the
// persisted final-rate table; exchange clients are never called on this path.
type RateQueryService struct {
	rateRepo   portsrepo.RateReader
	sourceRepo portsrepo.SourceReader
	cityRepo   portsrepo.CityReader
	logger     *slog.Logger
	now        func() time.Time
}

// NewRateQueryService creates a new RateQueryService.
func NewRateQueryService(
	rateRepo portsrepo.RateReader,
	sourceRepo portsrepo.SourceReader,
	cityRepo portsrepo.CityReader,
	logger *slog.Logger,
) *RateQueryService {
	return &RateQueryService{
		rateRepo:   rateRepo,
		sourceRepo: sourceRepo,
		cityRepo:   cityRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// GetBestRate picks the most favorable base price for a pair across all
// enabled sources and applies the city markup on top. Buy quotes use each
// source's ask and the lowest candidate wins; sell quotes use the bid and
// the highest wins. On equal prices the first source in ascending code
// order is kept, which makes the pick deterministic.
func (s *RateQueryService) GetBestRate(ctx context.Context, symbol, cityCode string, op domain.Operation) (*domain.BestRate, error) {
	symbol = strings.ToUpper(symbol)

	rates, err := s.rateRepo.GetAllFinal(ctx, "", false)
	if err != nil {
		return nil, fmt.Errorf("failed to load final rates: %w", err)
	}

	candidates := make(map[string]decimal.Decimal)
	for _, r := range rates {
		if r.InternalSymbol != symbol {
			continue
		}
		price, ok := r.SidePrice(op)
		if !ok {
			continue
		}
		candidates[r.SourceCode] = price
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrNoRateAvailable, symbol, op)
	}

	codes := make([]string, 0, len(candidates))
	for code := range candidates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	bestSource := codes[0]
	baseRate := candidates[bestSource]
	for _, code := range codes[1:] {
		price := candidates[code]
		if op == domain.OperationBuy && price.LessThan(baseRate) {
			bestSource, baseRate = code, price
		}
		if op == domain.OperationSell && price.GreaterThan(baseRate) {
			bestSource, baseRate = code, price
		}
	}

	markupPercent, markupFixed, cityName := s.cityMarkup(ctx, cityCode, symbol, op)

	finalRate := baseRate.Mul(decimal.NewFromInt(1).Add(markupPercent.Div(oneHundred))).Add(markupFixed)
	finalRate = finalRate.Round(roundPlacesForQuote(quoteCurrencyOf(symbol)))

	return &domain.BestRate{
		Symbol:        symbol,
		City:          cityCode,
		CityName:      cityName,
		Operation:     op,
		BestSource:    bestSource,
		BaseRate:      baseRate,
		FinalRate:     finalRate,
		MarkupPercent: markupPercent,
		MarkupFixed:   markupFixed,
		SourceRates:   candidates,
		CalculatedAt:  s.now(),
	}, nil
}

// cityMarkup resolves the markup for a city and pair: the per-pair override
// wins, then the city's blanket markup; an unknown city quotes with no
// markup rather than failing the read.
func (s *RateQueryService) cityMarkup(ctx context.Context, cityCode, symbol string, op domain.Operation) (percent, fixed decimal.Decimal, cityName string) {
	city, err := s.cityRepo.FindCityByCode(ctx, cityCode)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to load city", slog.String("city", cityCode), slog.String("error", err.Error()))
		} else {
			s.logger.Warn("unknown city, quoting without markup", slog.String("city", cityCode))
		}
		return decimal.Zero, decimal.Zero, cityCode
	}

	override, err := s.cityRepo.FindPairMarkup(ctx, city.CityID, symbol)
	if err == nil {
		percent, fixed = override.MarkupFor(op)
		return percent, fixed, city.Name
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Error("failed to load city pair markup", slog.String("city", cityCode), slog.String("error", err.Error()))
	}

	percent, fixed = city.MarkupFor(op)
	return percent, fixed, city.Name
}

// GetFinalRate returns the freshest final rate for base/quote, optionally
// pinned to one source code.
func (s *RateQueryService) GetFinalRate(ctx context.Context, base, quote, sourceCode string, allowStale bool) (*domain.FinalRate, error) {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)
	if base == "" || quote == "" {
		return nil, fmt.Errorf("%w: base and quote currencies are required", apperrors.ErrValidation)
	}
	rate, err := s.rateRepo.GetFinal(ctx, base, quote, sourceCode, allowStale)
	if err != nil {
		return nil, err
	}
	return rate, nil
}

// GetAllFinalRates returns current final rates, optionally per source.
func (s *RateQueryService) GetAllFinalRates(ctx context.Context, sourceCode string, allowStale bool) ([]domain.FinalRate, error) {
	return s.rateRepo.GetAllFinal(ctx, sourceCode, allowStale)
}

// ListPairs returns the distinct internal symbols available for quoting.
func (s *RateQueryService) ListPairs(ctx context.Context) ([]string, error) {
	return s.sourceRepo.ListInternalSymbols(ctx)
}

// GetClientRates builds the both-sides quote table for a city across every
// enabled pair. A pair that cannot be quoted on a side is skipped for that
// side rather than failing the whole table.
func (s *RateQueryService) GetClientRates(ctx context.Context, cityCode string) ([]domain.ClientRates, error) {
	pairs, err := s.sourceRepo.ListInternalSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	out := make([]domain.ClientRates, 0, len(pairs))
	for _, symbol := range pairs {
		entry := domain.ClientRates{Symbol: symbol}

		if buy, err := s.GetBestRate(ctx, symbol, cityCode, domain.OperationBuy); err == nil {
			entry.Buy = &domain.ClientRateSide{
				Rate:     buy.FinalRate,
				BaseRate: buy.BaseRate,
				Source:   buy.BestSource,
				Markup:   buy.MarkupPercent,
			}
		} else if !errors.Is(err, apperrors.ErrNoRateAvailable) {
			s.logger.Error("failed to quote buy side", slog.String("symbol", symbol), slog.String("error", err.Error()))
		}

		if sell, err := s.GetBestRate(ctx, symbol, cityCode, domain.OperationSell); err == nil {
			entry.Sell = &domain.ClientRateSide{
				Rate:     sell.FinalRate,
				BaseRate: sell.BaseRate,
				Source:   sell.BestSource,
				Markup:   sell.MarkupPercent,
			}
		} else if !errors.Is(err, apperrors.ErrNoRateAvailable) {
			s.logger.Error("failed to quote sell side", slog.String("symbol", symbol), slog.String("error", err.Error()))
		}

		if entry.Buy != nil || entry.Sell != nil {
			out = append(out, entry)
		}
	}
	return out, nil
}

// quoteCurrencyOf extracts the quote leg of an internal symbol like
// "USDT/RUB". Symbols without a separator default to RUB quoting.
func quoteCurrencyOf(symbol string) string {
	if i := strings.IndexByte(symbol, '/'); i >= 0 {
		return symbol[i+1:]
	}
	return "RUB"
}
