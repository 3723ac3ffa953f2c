package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
	"github.com/EG0RIAN/tg-exhange-bot/internal/handlers"
	"github.com/EG0RIAN/tg-exhange-bot/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SyncService ---
type MockSyncService struct {
	mock.Mock
}

var _ portssvc.SyncSvcFacade = (*MockSyncService)(nil)

func (m *MockSyncService) SyncSource(ctx context.Context, sourceCode string) (*domain.SyncResult, error) {
	args := m.Called(ctx, sourceCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncResult), args.Error(1)
}

func (m *MockSyncService) SyncAll(ctx context.Context) ([]domain.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncResult), args.Error(1)
}

func (m *MockSyncService) ListSyncLogs(ctx context.Context, sourceCode string, limit int) ([]domain.SyncLog, error) {
	args := m.Called(ctx, sourceCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncLog), args.Error(1)
}

func (m *MockSyncService) CalculateVWAP(ctx context.Context, sourceCode, symbol string, op domain.Operation, amount decimal.Decimal) (*domain.VWAPQuote, error) {
	args := m.Called(ctx, sourceCode, symbol, op, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VWAPQuote), args.Error(1)
}

// --- Mock Scheduler ---
type MockScheduler struct {
	mock.Mock
}

var _ portssvc.SchedulerSvcFacade = (*MockScheduler)(nil)

func (m *MockScheduler) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockScheduler) Stop() {
	m.Called()
}

func (m *MockScheduler) TriggerSync(ctx context.Context, sourceCode string) ([]domain.SyncResult, error) {
	args := m.Called(ctx, sourceCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncResult), args.Error(1)
}

func (m *MockScheduler) Status() portssvc.SchedulerStatus {
	args := m.Called()
	return args.Get(0).(portssvc.SchedulerStatus)
}

// --- Test Suite ---
type SyncHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	mockSyncSvc   *MockSyncService
	mockScheduler *MockScheduler
	jwtSecret     string
}

func (suite *SyncHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "fx-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *SyncHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.mockSyncSvc = new(MockSyncService)
	suite.mockScheduler = new(MockScheduler)

	admin := suite.router.Group("/api/v1/admin", middleware.AuthMiddleware(suite.jwtSecret))
	handlers.RegisterSyncRoutes(admin, suite.mockSyncSvc, suite.mockScheduler)
}

func (suite *SyncHandlerTestSuite) serve(method, url string, authed bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if authed {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken("admin"))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_RequiresAuth() {
	w := suite.serve(http.MethodPost, "/api/v1/admin/sync", false)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockScheduler.AssertNotCalled(suite.T(), "TriggerSync")
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_AllSources() {
	results := []domain.SyncResult{
		{SourceCode: "grinex", Status: domain.SyncStatusSuccess, PairsProcessed: 2, PairsSucceeded: 2},
		{SourceCode: "rapira", Status: domain.SyncStatusPartial, PairsProcessed: 2, PairsSucceeded: 1, PairsFailed: 1},
	}
	suite.mockScheduler.On("TriggerSync", mock.Anything, "").Return(results, nil).Once()

	w := suite.serve(http.MethodPost, "/api/v1/admin/sync", true)

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		Results []dto.SyncResultResponse `json:"results"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Results, 2)
	suite.Equal("success", resp.Results[0].Status)
	suite.mockScheduler.AssertExpectations(suite.T())
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_SingleSource() {
	results := []domain.SyncResult{{SourceCode: "grinex", Status: domain.SyncStatusSuccess}}
	suite.mockScheduler.On("TriggerSync", mock.Anything, "grinex").Return(results, nil).Once()

	w := suite.serve(http.MethodPost, "/api/v1/admin/sync?source=grinex", true)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_Conflict() {
	suite.mockScheduler.On("TriggerSync", mock.Anything, "grinex").
		Return(nil, fmt.Errorf("%w: grinex", apperrors.ErrSyncInProgress)).Once()

	w := suite.serve(http.MethodPost, "/api/v1/admin/sync?source=grinex", true)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_UnknownSource() {
	suite.mockScheduler.On("TriggerSync", mock.Anything, "binance").
		Return(nil, fmt.Errorf("%w: source binance not found or disabled", apperrors.ErrNotFound)).Once()

	w := suite.serve(http.MethodPost, "/api/v1/admin/sync?source=binance", true)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *SyncHandlerTestSuite) TestGetStatus() {
	suite.mockScheduler.On("Status").Return(portssvc.SchedulerStatus{
		Running:  true,
		LastSync: map[string]time.Time{"grinex": time.Now()},
		Config:   portssvc.SchedulerConfig{SyncIntervalSeconds: 60},
	}).Once()

	w := suite.serve(http.MethodGet, "/api/v1/admin/sync/status", true)

	suite.Equal(http.StatusOK, w.Code)
	var resp portssvc.SchedulerStatus
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Running)
	suite.Equal(60, resp.Config.SyncIntervalSeconds)
}

func (suite *SyncHandlerTestSuite) TestListSyncLogs() {
	finished := time.Now()
	logs := []domain.SyncLog{
		{SyncLogID: "log-1", SourceID: "src-grinex", Status: domain.SyncStatusSuccess, FinishedAt: &finished},
	}
	suite.mockSyncSvc.On("ListSyncLogs", mock.Anything, "grinex", 10).Return(logs, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/admin/sync/logs?source=grinex&limit=10", true)

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		Logs []dto.SyncLogResponse `json:"logs"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Logs, 1)
	suite.Equal("success", resp.Logs[0].Status)
}

func (suite *SyncHandlerTestSuite) TestCalculateVWAP() {
	ruleID := "rule-pair"
	quote := &domain.VWAPQuote{
		SourceCode:    "grinex",
		Symbol:        "USDT/RUB",
		Operation:     domain.OperationBuy,
		Amount:        decimal.RequireFromString("1000"),
		RawVWAP:       decimal.RequireFromString("81.75"),
		FinalPrice:    decimal.RequireFromString("83.39"),
		AppliedRuleID: &ruleID,
		BookTimestamp: time.Now(),
		CalculatedAt:  time.Now(),
	}
	suite.mockSyncSvc.On("CalculateVWAP", mock.Anything, "grinex", "USDT/RUB", domain.OperationBuy,
		mock.MatchedBy(func(a decimal.Decimal) bool { return a.Equal(decimal.RequireFromString("1000")) })).
		Return(quote, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/admin/vwap?source=grinex&symbol=USDT/RUB&operation=buy&amount=1000", true)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.VWAPQuote
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("grinex", resp.SourceCode)
	suite.True(decimal.RequireFromString("83.39").Equal(resp.FinalPrice))
	suite.mockSyncSvc.AssertExpectations(suite.T())
}

func (suite *SyncHandlerTestSuite) TestCalculateVWAP_MissingParams() {
	w := suite.serve(http.MethodGet, "/api/v1/admin/vwap?symbol=USDT/RUB", true)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSyncSvc.AssertNotCalled(suite.T(), "CalculateVWAP")
}

func (suite *SyncHandlerTestSuite) TestCalculateVWAP_EmptyBook() {
	suite.mockSyncSvc.On("CalculateVWAP", mock.Anything, "grinex", "USDT/RUB", domain.OperationSell, mock.Anything).
		Return(nil, fmt.Errorf("%w: bid side of usdtrub is empty", apperrors.ErrNoPriceAvailable)).Once()

	w := suite.serve(http.MethodGet, "/api/v1/admin/vwap?source=grinex&symbol=USDT/RUB&operation=sell&amount=10", true)
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestSyncHandler(t *testing.T) {
	suite.Run(t, new(SyncHandlerTestSuite))
}
