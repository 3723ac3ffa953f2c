package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/clients"
	portsrepo "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SyncConfig bounds one sync run.
type SyncConfig struct {
	// MaxConcurrent caps how many pairs are persisted in flight.
	MaxConcurrent int
	// RunTimeout is the overall budget for one run, fetch included.
	RunTimeout time.Duration
}

// SyncService drives one sync cycle per source: fetch tickers, resolve the
// markup rule, compute the final price, persist each pair's raw and final
// rows together, and append a sync log. Runs are strictly non-overlapping per source; a second run
// requested while one is active is refused, never queued.
type SyncService struct {
	resolver *RuleResolver
	rateRepo portsrepo.RateRepositoryFacade
	registry clients.Registry
	cache    clients.TickerCache
	cfg      SyncConfig
	logger   *slog.Logger

	running sync.Map // source code -> *sync.Mutex
	now     func() time.Time
}

// NewSyncService creates a new SyncService. cache may be nil; ticker caching
// is then skipped.
func NewSyncService(
	resolver *RuleResolver,
	rateRepo portsrepo.RateRepositoryFacade,
	registry clients.Registry,
	cache clients.TickerCache,
	cfg SyncConfig,
	logger *slog.Logger,
) *SyncService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = time.Minute
	}
	return &SyncService{
		resolver: resolver,
		rateRepo: rateRepo,
		registry: registry,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncSource runs one full sync cycle for the named source.
func (s *SyncService) SyncSource(ctx context.Context, sourceCode string) (*domain.SyncResult, error) {
	muIface, _ := s.running.LoadOrStore(sourceCode, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	if !mu.TryLock() {
		s.logger.Warn("sync tick skipped, previous run still active", slog.String("source", sourceCode))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSyncInProgress, sourceCode)
	}
	defer mu.Unlock()

	source, err := s.resolver.SourceByCode(ctx, sourceCode)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: source %s not found or disabled", apperrors.ErrNotFound, sourceCode)
	}

	client, ok := s.registry.Client(sourceCode)
	if !ok {
		return nil, fmt.Errorf("%w: no client registered for source %s", apperrors.ErrNotFound, sourceCode)
	}

	pairs, err := s.resolver.PairsForSource(ctx, source.SourceID)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		s.logger.Warn("no pairs configured for source", slog.String("source", sourceCode))
		return &domain.SyncResult{SourceCode: sourceCode, Status: domain.SyncStatusSuccess}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	startedAt := s.now()

	tickers, fetchErr := s.fetchTickers(ctx, client, pairs)

	var (
		resMu     sync.Mutex
		succeeded int
		failed    int
		errMsgs   []string
	)
	recordFailure := func(symbol string, err error) {
		resMu.Lock()
		failed++
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %v", symbol, err))
		resMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			ticker, ok := tickers[pair.SourceSymbol]
			if !ok {
				recordFailure(pair.SourceSymbol, errors.New("no data"))
				return nil
			}
			if err := s.persistPair(gctx, *source, pair, ticker); err != nil {
				recordFailure(pair.SourceSymbol, err)
				return nil
			}
			resMu.Lock()
			succeeded++
			resMu.Unlock()
			// One bad pair never aborts the run; workers report through the
			// counters, not through errgroup errors.
			return nil
		})
	}
	_ = g.Wait()

	finishedAt := s.now()
	durationMs := finishedAt.Sub(startedAt).Milliseconds()

	status := domain.SyncStatusSuccess
	switch {
	case failed == 0:
	case succeeded > 0:
		status = domain.SyncStatusPartial
	default:
		status = domain.SyncStatusError
		if fetchErr != nil {
			errMsgs = append(errMsgs, fetchErr.Error())
		}
	}

	logRow := domain.SyncLog{
		SyncLogID:      uuid.NewString(),
		SourceID:       source.SourceID,
		StartedAt:      startedAt,
		FinishedAt:     &finishedAt,
		Status:         status,
		PairsProcessed: len(pairs),
		PairsSucceeded: succeeded,
		PairsFailed:    failed,
		DurationMs:     durationMs,
		ErrorMessage:   joinErrors(errMsgs),
	}
	if err := s.rateRepo.AppendSyncLog(ctx, logRow); err != nil {
		s.logger.Error("failed to append sync log", slog.String("source", sourceCode), slog.String("error", err.Error()))
	}

	return &domain.SyncResult{
		SourceCode:     sourceCode,
		Status:         status,
		PairsProcessed: len(pairs),
		PairsSucceeded: succeeded,
		PairsFailed:    failed,
		DurationMs:     durationMs,
		Errors:         errMsgs,
	}, nil
}

// SyncAll runs a sync cycle for every enabled source. A source whose run is
// already active is skipped under the non-overlap rule.
func (s *SyncService) SyncAll(ctx context.Context) ([]domain.SyncResult, error) {
	sources, err := s.resolver.Sources(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		s.logger.Warn("no enabled sources configured")
		return nil, nil
	}

	results := make([]domain.SyncResult, 0, len(sources))
	for _, src := range sources {
		res, err := s.SyncSource(ctx, src.Code)
		if err != nil {
			if errors.Is(err, apperrors.ErrSyncInProgress) {
				continue
			}
			s.logger.Error("sync failed", slog.String("source", src.Code), slog.String("error", err.Error()))
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// ListSyncLogs returns recent sync runs, newest first.
func (s *SyncService) ListSyncLogs(ctx context.Context, sourceCode string, limit int) ([]domain.SyncLog, error) {
	return s.rateRepo.ListSyncLogs(ctx, sourceCode, limit)
}

// CalculateVWAP fetches live depth for one pair and prices filling amount
// against it. Buy fills consume asks and sell fills consume bids; the pair's
// markup rule applies to the volume-weighted price exactly as it does to a
// last-trade sync.
func (s *SyncService) CalculateVWAP(ctx context.Context, sourceCode, symbol string, op domain.Operation, amount decimal.Decimal) (*domain.VWAPQuote, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}
	symbol = strings.ToUpper(symbol)

	source, err := s.resolver.SourceByCode(ctx, sourceCode)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: source %s not found or disabled", apperrors.ErrNotFound, sourceCode)
	}
	client, ok := s.registry.Client(sourceCode)
	if !ok {
		return nil, fmt.Errorf("%w: no client registered for source %s", apperrors.ErrNotFound, sourceCode)
	}

	pairs, err := s.resolver.PairsForSource(ctx, source.SourceID)
	if err != nil {
		return nil, err
	}
	var pair *domain.SourcePair
	for i := range pairs {
		if pairs[i].InternalSymbol == symbol {
			pair = &pairs[i]
			break
		}
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: pair %s is not traded on %s", apperrors.ErrNotFound, symbol, sourceCode)
	}

	book, err := client.GetOrderBook(ctx, pair.SourceSymbol)
	if err != nil {
		return nil, err
	}

	side := domain.SideAsk
	if op == domain.OperationSell {
		side = domain.SideBid
	}
	raw, err := VWAP(*book, side, amount)
	if err != nil {
		return nil, err
	}

	rule, err := s.resolver.Resolve(ctx, source.SourceID, pair.SourcePairID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve markup rule: %w", err)
	}

	quote := &domain.VWAPQuote{
		SourceCode:    sourceCode,
		Symbol:        symbol,
		Operation:     op,
		Amount:        amount,
		RawVWAP:       raw,
		FinalPrice:    ApplyMarkup(raw, rule),
		BookTimestamp: book.Timestamp,
		CalculatedAt:  s.now(),
	}
	if rule != nil {
		quote.AppliedRuleID = &rule.RuleID
	}
	return quote, nil
}

// fetchTickers prefers one bulk call and fans out to per-pair calls when the
// bulk call fails. Per-pair misses are bridged with the last cached ticker
// when a cache is wired.
func (s *SyncService) fetchTickers(ctx context.Context, client clients.ExchangeClient, pairs []domain.SourcePair) (map[string]domain.Ticker, error) {
	all, err := client.GetAllTickers(ctx)
	if err == nil {
		out := make(map[string]domain.Ticker, len(pairs))
		for _, p := range pairs {
			if t, ok := all[p.SourceSymbol]; ok {
				out[p.SourceSymbol] = t
			}
		}
		return out, nil
	}
	s.logger.Warn("bulk ticker fetch failed, falling back to per-pair calls",
		slog.String("source", client.Code()), slog.String("error", err.Error()))

	out := make(map[string]domain.Ticker, len(pairs))
	for _, p := range pairs {
		t, terr := client.GetTicker(ctx, p.SourceSymbol)
		if terr == nil {
			out[p.SourceSymbol] = *t
			continue
		}
		if s.cache != nil {
			if cached, cerr := s.cache.GetTicker(ctx, client.Code(), p.SourceSymbol); cerr == nil {
				s.logger.Warn("using cached ticker after fetch failure",
					slog.String("source", client.Code()), slog.String("symbol", p.SourceSymbol))
				out[p.SourceSymbol] = *cached
				continue
			}
		}
		s.logger.Error("per-pair ticker fetch failed",
			slog.String("source", client.Code()), slog.String("symbol", p.SourceSymbol), slog.String("error", terr.Error()))
	}
	if len(out) == 0 {
		return out, fmt.Errorf("%w: %s: %v", apperrors.ErrSourceUnavailable, client.Code(), err)
	}
	return out, nil
}

// persistPair resolves the rule, computes the final price and writes the
// raw and final rows for one pair in one transactional upsert, clearing its
// stale flag.
func (s *SyncService) persistPair(ctx context.Context, source domain.Source, pair domain.SourcePair, ticker domain.Ticker) error {
	raw := domain.RawRate{
		SourceID:     source.SourceID,
		SourcePairID: pair.SourcePairID,
		Price:        ticker.LastPrice,
		Bid:          ticker.Bid,
		Ask:          ticker.Ask,
		Volume24h:    ticker.Volume24h,
		Metadata:     tickerMetadata(ticker),
		ReceivedAt:   s.now(),
	}

	rule, err := s.resolver.Resolve(ctx, source.SourceID, pair.SourcePairID)
	if err != nil {
		return fmt.Errorf("failed to resolve markup rule: %w", err)
	}

	finalPrice := ApplyMarkup(ticker.LastPrice, rule)
	if !finalPrice.IsPositive() {
		s.logger.Warn("markup produced a non-positive price",
			slog.String("source", source.Code),
			slog.String("symbol", pair.InternalSymbol),
			slog.String("finalPrice", finalPrice.String()),
		)
	}

	final := domain.FinalRate{
		SourceID:       source.SourceID,
		SourceCode:     source.Code,
		SourcePairID:   pair.SourcePairID,
		InternalSymbol: pair.InternalSymbol,
		BaseCurrency:   pair.BaseCurrency,
		QuoteCurrency:  pair.QuoteCurrency,
		RawPrice:       ticker.LastPrice,
		FinalPrice:     finalPrice,
		Bid:            ticker.Bid,
		Ask:            ticker.Ask,
		MarkupPercent:  decimal.Zero,
		MarkupFixed:    decimal.Zero,
		CalculatedAt:   s.now(),
		Stale:          false,
	}
	if rule != nil {
		final.AppliedRuleID = &rule.RuleID
		final.MarkupPercent = rule.Percent
		final.MarkupFixed = rule.Fixed
	}
	if err := s.rateRepo.SaveRatePair(ctx, raw, final); err != nil {
		return fmt.Errorf("failed to persist rate pair: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTicker(ctx, source.Code, ticker); err != nil {
			s.logger.Warn("failed to cache ticker", slog.String("symbol", ticker.Symbol), slog.String("error", err.Error()))
		}
	}
	return nil
}

func tickerMetadata(t domain.Ticker) map[string]string {
	md := make(map[string]string)
	if t.High24h.Valid {
		md["high_24h"] = t.High24h.Decimal.String()
	}
	if t.Low24h.Valid {
		md["low_24h"] = t.Low24h.Decimal.String()
	}
	if t.Change24h.Valid {
		md["change_24h"] = t.Change24h.Decimal.String()
	}
	if len(md) == 0 {
		return nil
	}
	return md
}

func joinErrors(msgs []string) string {
	if len(msgs) == 0 {
		return ""
	}
	if len(msgs) > 10 {
		msgs = msgs[:10]
	}
	return strings.Join(msgs, "; ")
}
