package services_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/clients"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock ExchangeClient ---
type MockExchangeClient struct {
	mock.Mock
	code string
}

// Ensure MockExchangeClient implements clients.ExchangeClient
var _ clients.ExchangeClient = (*MockExchangeClient)(nil)

func (m *MockExchangeClient) Code() string { return m.code }

func (m *MockExchangeClient) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticker), args.Error(1)
}

func (m *MockExchangeClient) GetAllTickers(ctx context.Context) (map[string]domain.Ticker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Ticker), args.Error(1)
}

func (m *MockExchangeClient) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderBook), args.Error(1)
}

func (m *MockExchangeClient) Health() domain.SourceHealth {
	args := m.Called()
	return args.Get(0).(domain.SourceHealth)
}

// staticRegistry is a fixed client lookup for tests.
type staticRegistry map[string]clients.ExchangeClient

var _ clients.Registry = (staticRegistry)(nil)

func (r staticRegistry) Client(code string) (clients.ExchangeClient, bool) {
	c, ok := r[code]
	return c, ok
}

func (r staticRegistry) Codes() []string {
	codes := make([]string, 0, len(r))
	for code := range r {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// --- Mock TickerCache ---
type MockTickerCache struct {
	mock.Mock
}

var _ clients.TickerCache = (*MockTickerCache)(nil)

func (m *MockTickerCache) SetTicker(ctx context.Context, sourceCode string, ticker domain.Ticker) error {
	args := m.Called(ctx, sourceCode, ticker)
	return args.Error(0)
}

func (m *MockTickerCache) GetTicker(ctx context.Context, sourceCode, symbol string) (*domain.Ticker, error) {
	args := m.Called(ctx, sourceCode, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticker), args.Error(1)
}

func usdtRubTicker(last string) domain.Ticker {
	return domain.Ticker{
		Symbol:    "usdtrub",
		LastPrice: d(last),
		Bid:       nullDec("81.7"),
		Ask:       nullDec("81.9"),
		Volume24h: nullDec("1000000"),
		High24h:   nullDec("82.4"),
		Timestamp: time.Now(),
	}
}

// grinexOnlyFixtures narrows the resolver fixtures to the grinex source so
// SyncAll touches exactly one client.
func grinexOnlyFixtures() ([]domain.Source, []domain.SourcePair, []domain.MarkupRule) {
	sources, pairs, rules := resolverFixtures()
	return sources[:1], pairs, rules
}

func syncFixture(t *testing.T, repo *MockSourceRepository, rateRepo *MockRateRepository, client *MockExchangeClient, cache clients.TickerCache) *services.SyncService {
	t.Helper()
	resolver := services.NewRuleResolver(repo, time.Minute, testLogger())
	registry := staticRegistry{client.code: client}
	return services.NewSyncService(resolver, rateRepo, registry, cache, services.SyncConfig{
		MaxConcurrent: 2,
		RunTimeout:    5 * time.Second,
	}, testLogger())
}

func TestSyncSource_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, _ := grinexOnlyFixtures()
	// One pair-level rule at 2 percent for USDT/RUB, nothing for BTC/USDT.
	rules := []domain.MarkupRule{
		{RuleID: "rule-pair", Level: domain.RuleLevelPair, SourcePairID: strPtr(usdtRubID), Percent: d("2"), RoundingMode: domain.RoundHalfUp, RoundTo: 2, Enabled: true},
	}
	expectRebuild(repo, sources, pairs, rules)

	client.On("GetAllTickers", mock.Anything).Return(map[string]domain.Ticker{
		"usdtrub": usdtRubTicker("80"),
		"btcusdt": {Symbol: "btcusdt", LastPrice: d("60000"), Timestamp: time.Now()},
	}, nil).Once()

	rateRepo.On("SaveRatePair", mock.Anything, mock.MatchedBy(func(r domain.RawRate) bool {
		return r.SourceID == grinexID
	}), mock.MatchedBy(func(r domain.FinalRate) bool {
		if r.SourcePairID == usdtRubID {
			// 80 * 1.02 with the pair rule applied.
			return r.FinalPrice.Equal(d("81.6")) && r.AppliedRuleID != nil && !r.Stale
		}
		// No rule matches BTC/USDT; the raw price passes through.
		return r.FinalPrice.Equal(d("60000")) && r.AppliedRuleID == nil && !r.Stale
	})).Return(nil).Times(2)
	rateRepo.On("AppendSyncLog", mock.Anything, mock.MatchedBy(func(l domain.SyncLog) bool {
		return l.Status == domain.SyncStatusSuccess && l.PairsSucceeded == 2 && l.PairsFailed == 0
	})).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, nil)

	res, err := svc.SyncSource(ctx, "grinex")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)
	assert.Equal(t, 2, res.PairsProcessed)
	assert.Equal(t, 2, res.PairsSucceeded)
	rateRepo.AssertExpectations(t)
}

func TestSyncSource_PartialWhenAPairHasNoData(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs, rules)

	// The bulk endpoint knows nothing about btcusdt.
	client.On("GetAllTickers", mock.Anything).Return(map[string]domain.Ticker{
		"usdtrub": usdtRubTicker("80"),
	}, nil).Once()

	rateRepo.On("SaveRatePair", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	rateRepo.On("AppendSyncLog", mock.Anything, mock.MatchedBy(func(l domain.SyncLog) bool {
		return l.Status == domain.SyncStatusPartial && l.PairsFailed == 1 && l.ErrorMessage != ""
	})).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, nil)

	res, err := svc.SyncSource(ctx, "grinex")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPartial, res.Status)
	assert.Equal(t, 1, res.PairsSucceeded)
	assert.Equal(t, 1, res.PairsFailed)
	rateRepo.AssertExpectations(t)
}

func TestSyncSource_FallsBackToPerPairFetch(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs, rules)

	client.On("GetAllTickers", mock.Anything).Return(nil, errors.New("bulk endpoint down")).Once()
	usdt := usdtRubTicker("80")
	btc := domain.Ticker{Symbol: "btcusdt", LastPrice: d("60000"), Timestamp: time.Now()}
	client.On("GetTicker", mock.Anything, "usdtrub").Return(&usdt, nil).Once()
	client.On("GetTicker", mock.Anything, "btcusdt").Return(&btc, nil).Once()

	rateRepo.On("SaveRatePair", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(2)
	rateRepo.On("AppendSyncLog", mock.Anything, mock.Anything).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, nil)

	res, err := svc.SyncSource(ctx, "grinex")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)
	client.AssertExpectations(t)
}

func TestSyncSource_BridgesFetchFailureWithCachedTicker(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}
	cache := new(MockTickerCache)

	sources, pairs, rules := grinexOnlyFixtures()
	// Keep only the USDT/RUB pair so a single symbol is in play.
	expectRebuild(repo, sources, pairs[:1], rules)

	client.On("GetAllTickers", mock.Anything).Return(nil, errors.New("bulk endpoint down")).Once()
	client.On("GetTicker", mock.Anything, "usdtrub").Return(nil, errors.New("timeout")).Once()
	cached := usdtRubTicker("79.5")
	cache.On("GetTicker", mock.Anything, "grinex", "usdtrub").Return(&cached, nil).Once()
	cache.On("SetTicker", mock.Anything, "grinex", mock.Anything).Return(nil).Once()

	rateRepo.On("SaveRatePair", mock.Anything, mock.MatchedBy(func(r domain.RawRate) bool {
		return r.Price.Equal(d("79.5"))
	}), mock.Anything).Return(nil).Once()
	rateRepo.On("AppendSyncLog", mock.Anything, mock.Anything).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, cache)

	res, err := svc.SyncSource(ctx, "grinex")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)
	cache.AssertExpectations(t)
}

func TestSyncSource_ErrorWhenNothingFetched(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs[:1], rules)

	client.On("GetAllTickers", mock.Anything).Return(nil, errors.New("bulk endpoint down")).Once()
	client.On("GetTicker", mock.Anything, "usdtrub").Return(nil, errors.New("timeout")).Once()

	rateRepo.On("AppendSyncLog", mock.Anything, mock.MatchedBy(func(l domain.SyncLog) bool {
		return l.Status == domain.SyncStatusError && l.PairsSucceeded == 0
	})).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, nil)

	res, err := svc.SyncSource(ctx, "grinex")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusError, res.Status)
	rateRepo.AssertExpectations(t)
}

func TestSyncSource_UnknownSource(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs, rules)

	svc := syncFixture(t, repo, new(MockRateRepository), &MockExchangeClient{code: "grinex"}, nil)

	_, err := svc.SyncSource(ctx, "binance")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSyncSource_RefusesOverlappingRun(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs[:1], rules)

	entered := make(chan struct{})
	release := make(chan struct{})
	client.On("GetAllTickers", mock.Anything).Run(func(args mock.Arguments) {
		close(entered)
		<-release
	}).Return(map[string]domain.Ticker{"usdtrub": usdtRubTicker("80")}, nil).Once()

	rateRepo.On("SaveRatePair", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	rateRepo.On("AppendSyncLog", mock.Anything, mock.Anything).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SyncSource(ctx, "grinex")
		done <- err
	}()

	<-entered
	_, err := svc.SyncSource(ctx, "grinex")
	assert.ErrorIs(t, err, apperrors.ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestSyncAll_RunsEveryEnabledSource(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs, rules)

	client.On("GetAllTickers", mock.Anything).Return(map[string]domain.Ticker{
		"usdtrub": usdtRubTicker("80"),
		"btcusdt": {Symbol: "btcusdt", LastPrice: d("60000"), Timestamp: time.Now()},
	}, nil).Once()
	rateRepo.On("SaveRatePair", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(2)
	rateRepo.On("AppendSyncLog", mock.Anything, mock.Anything).Return(nil).Once()

	svc := syncFixture(t, repo, rateRepo, client, nil)

	results, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "grinex", results[0].SourceCode)
	assert.Equal(t, domain.SyncStatusSuccess, results[0].Status)
}

func TestListSyncLogs_DelegatesToRepository(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	rateRepo := new(MockRateRepository)

	logs := []domain.SyncLog{{SyncLogID: "log-1", Status: domain.SyncStatusSuccess}}
	rateRepo.On("ListSyncLogs", ctx, "grinex", 10).Return(logs, nil).Once()

	svc := syncFixture(t, repo, rateRepo, &MockExchangeClient{code: "grinex"}, nil)

	got, err := svc.ListSyncLogs(ctx, "grinex", 10)
	require.NoError(t, err)
	assert.Equal(t, logs, got)
}

func TestCalculateVWAP_WalksDepthAndAppliesRule(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, _ := grinexOnlyFixtures()
	rules := []domain.MarkupRule{
		{RuleID: "rule-pair", Level: domain.RuleLevelPair, SourcePairID: strPtr(usdtRubID), Percent: d("2"), RoundingMode: domain.RoundHalfUp, RoundTo: 2, Enabled: true},
	}
	expectRebuild(repo, sources, pairs, rules)

	book := &domain.OrderBook{
		Symbol: "usdtrub",
		Asks: []domain.BookLevel{
			{Price: d("81.5"), Qty: d("1")},
			{Price: d("82"), Qty: d("2")},
		},
		Timestamp: time.Now(),
	}
	client.On("GetOrderBook", mock.Anything, "usdtrub").Return(book, nil).Once()

	svc := syncFixture(t, repo, new(MockRateRepository), client, nil)

	quote, err := svc.CalculateVWAP(ctx, "grinex", "usdt/rub", domain.OperationBuy, d("2"))
	require.NoError(t, err)
	// (81.5*1 + 82*1) / 2 across the first two levels.
	assert.True(t, d("81.75").Equal(quote.RawVWAP), "got %s", quote.RawVWAP)
	// 81.75 * 1.02 rounded half-up to 2 places.
	assert.True(t, d("83.39").Equal(quote.FinalPrice), "got %s", quote.FinalPrice)
	require.NotNil(t, quote.AppliedRuleID)
	assert.Equal(t, "rule-pair", *quote.AppliedRuleID)
	assert.Equal(t, "USDT/RUB", quote.Symbol)
	client.AssertExpectations(t)
}

func TestCalculateVWAP_SellSideWithoutRulePassesThrough(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, _ := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs, nil)

	book := &domain.OrderBook{
		Symbol:    "btcusdt",
		Bids:      []domain.BookLevel{{Price: d("60000"), Qty: d("1")}},
		Timestamp: time.Now(),
	}
	client.On("GetOrderBook", mock.Anything, "btcusdt").Return(book, nil).Once()

	svc := syncFixture(t, repo, new(MockRateRepository), client, nil)

	quote, err := svc.CalculateVWAP(ctx, "grinex", "BTC/USDT", domain.OperationSell, d("0.5"))
	require.NoError(t, err)
	assert.True(t, d("60000").Equal(quote.RawVWAP))
	assert.True(t, d("60000").Equal(quote.FinalPrice))
	assert.Nil(t, quote.AppliedRuleID)
}

func TestCalculateVWAP_UnknownPair(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	client := &MockExchangeClient{code: "grinex"}

	sources, pairs, rules := grinexOnlyFixtures()
	expectRebuild(repo, sources, pairs, rules)

	svc := syncFixture(t, repo, new(MockRateRepository), client, nil)

	_, err := svc.CalculateVWAP(ctx, "grinex", "DOGE/RUB", domain.OperationBuy, d("1"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	client.AssertNotCalled(t, "GetOrderBook")
}

func TestCalculateVWAP_NegativeAmount(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSourceRepository)
	client := &MockExchangeClient{code: "grinex"}

	svc := syncFixture(t, repo, new(MockRateRepository), client, nil)

	_, err := svc.CalculateVWAP(ctx, "grinex", "USDT/RUB", domain.OperationBuy, d("-1"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	client.AssertNotCalled(t, "GetOrderBook")
}
