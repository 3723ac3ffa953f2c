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
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RateQueryService ---
type MockRateQueryService struct {
	mock.Mock
}

// Ensure mock implements the interface
var _ portssvc.RateQuerySvcFacade = (*MockRateQueryService)(nil)

func (m *MockRateQueryService) GetBestRate(ctx context.Context, symbol, cityCode string, op domain.Operation) (*domain.BestRate, error) {
	args := m.Called(ctx, symbol, cityCode, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BestRate), args.Error(1)
}

func (m *MockRateQueryService) GetFinalRate(ctx context.Context, base, quote, sourceCode string, allowStale bool) (*domain.FinalRate, error) {
	args := m.Called(ctx, base, quote, sourceCode, allowStale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinalRate), args.Error(1)
}

func (m *MockRateQueryService) GetAllFinalRates(ctx context.Context, sourceCode string, allowStale bool) ([]domain.FinalRate, error) {
	args := m.Called(ctx, sourceCode, allowStale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinalRate), args.Error(1)
}

func (m *MockRateQueryService) GetClientRates(ctx context.Context, cityCode string) ([]domain.ClientRates, error) {
	args := m.Called(ctx, cityCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClientRates), args.Error(1)
}

func (m *MockRateQueryService) ListPairs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Test Suite ---
type RateHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockRateService *MockRateQueryService
}

func (suite *RateHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockRateService = new(MockRateQueryService)

	public := suite.router.Group("/api/v1/rates")
	handlers.RegisterRateRoutes(public, suite.mockRateService)
}

func (suite *RateHandlerTestSuite) serve(method, url string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RateHandlerTestSuite) TestGetBestRate_Success() {
	best := &domain.BestRate{
		Symbol:       "USDT/RUB",
		City:         "moscow",
		CityName:     "Москва",
		Operation:    domain.OperationBuy,
		BestSource:   "grinex",
		BaseRate:     decimal.RequireFromString("81.8"),
		FinalRate:    decimal.RequireFromString("82.21"),
		CalculatedAt: time.Now(),
	}
	suite.mockRateService.On("GetBestRate", mock.Anything, "USDT/RUB", "moscow", domain.OperationBuy).
		Return(best, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/best?symbol=usdt/rub")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.BestRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("grinex", resp.BestSource)
	suite.Equal("buy", resp.Operation)
	suite.True(decimal.RequireFromString("82.21").Equal(resp.FinalRate))
	suite.mockRateService.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetBestRate_MissingSymbol() {
	w := suite.serve(http.MethodGet, "/api/v1/rates/best")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateService.AssertNotCalled(suite.T(), "GetBestRate")
}

func (suite *RateHandlerTestSuite) TestGetBestRate_BadOperation() {
	w := suite.serve(http.MethodGet, "/api/v1/rates/best?symbol=USDT/RUB&operation=hold")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *RateHandlerTestSuite) TestGetBestRate_NoRate() {
	suite.mockRateService.On("GetBestRate", mock.Anything, "USDT/RUB", "moscow", domain.OperationBuy).
		Return(nil, fmt.Errorf("%w: USDT/RUB buy", apperrors.ErrNoRateAvailable)).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/best?symbol=USDT/RUB")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RateHandlerTestSuite) TestGetFinalRate_Success() {
	rate := &domain.FinalRate{
		SourceCode:     "grinex",
		InternalSymbol: "USDT/RUB",
		BaseCurrency:   "USDT",
		QuoteCurrency:  "RUB",
		RawPrice:       decimal.RequireFromString("80"),
		FinalPrice:     decimal.RequireFromString("81.6"),
		CalculatedAt:   time.Now(),
	}
	suite.mockRateService.On("GetFinalRate", mock.Anything, "USDT", "RUB", "grinex", true).
		Return(rate, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/USDT/RUB?source=grinex&allowStale=true")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.FinalRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("grinex", resp.SourceCode)
	suite.True(decimal.RequireFromString("81.6").Equal(resp.FinalPrice))
}

func (suite *RateHandlerTestSuite) TestGetFinalRate_NotFound() {
	suite.mockRateService.On("GetFinalRate", mock.Anything, "DOGE", "RUB", "", false).
		Return(nil, fmt.Errorf("%w: no rate for DOGE/RUB", apperrors.ErrNotFound)).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/DOGE/RUB")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RateHandlerTestSuite) TestGetFinalRate_StaleOnly() {
	suite.mockRateService.On("GetFinalRate", mock.Anything, "USDT", "RUB", "", false).
		Return(nil, fmt.Errorf("%w: USDT/RUB last calculated at 2026-08-30T10:00:00Z", apperrors.ErrStaleRate)).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/USDT/RUB")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Contains(w.Body.String(), "stale")
}

func (suite *RateHandlerTestSuite) TestListFinalRates() {
	rates := []domain.FinalRate{
		{SourceCode: "grinex", InternalSymbol: "USDT/RUB", FinalPrice: decimal.RequireFromString("81.6")},
		{SourceCode: "rapira", InternalSymbol: "USDT/RUB", FinalPrice: decimal.RequireFromString("81.7")},
	}
	suite.mockRateService.On("GetAllFinalRates", mock.Anything, "", false).Return(rates, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates")

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		Rates []dto.FinalRateResponse `json:"rates"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Rates, 2)
}

func (suite *RateHandlerTestSuite) TestListPairs() {
	suite.mockRateService.On("ListPairs", mock.Anything).Return([]string{"BTC/USDT", "USDT/RUB"}, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/pairs")

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		Pairs []string `json:"pairs"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal([]string{"BTC/USDT", "USDT/RUB"}, resp.Pairs)
}

func (suite *RateHandlerTestSuite) TestGetClientRates_DefaultsToMoscow() {
	table := []domain.ClientRates{{Symbol: "USDT/RUB"}}
	suite.mockRateService.On("GetClientRates", mock.Anything, "moscow").Return(table, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/rates/client")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRateService.AssertExpectations(suite.T())
}

func TestRateHandler(t *testing.T) {
	suite.Run(t, new(RateHandlerTestSuite))
}
