package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
	"github.com/EG0RIAN/tg-exhange-bot/internal/middleware"
	"github.com/gin-gonic/gin"
)

// rateHandler handles the public quote endpoints.
type rateHandler struct {
	rateService portssvc.RateQuerySvcFacade
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rs portssvc.RateQuerySvcFacade) *rateHandler {
	return &rateHandler{rateService: rs}
}

// RegisterRateRoutes registers the public quote routes.
func RegisterRateRoutes(rg *gin.RouterGroup, rateService portssvc.RateQuerySvcFacade) {
	h := newRateHandler(rateService)

	rg.GET("", h.listFinalRates)
	rg.GET("/pairs", h.listPairs)
	rg.GET("/best", h.getBestRate)
	rg.GET("/client", h.getClientRates)
	rg.GET("/:base/:quote", h.getFinalRate)
}

func (h *rateHandler) listFinalRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceCode := c.Query("source")
	allowStale := c.Query("allowStale") == "true"

	rates, err := h.rateService.GetAllFinalRates(c.Request.Context(), sourceCode, allowStale)
	if err != nil {
		logger.Error("Failed to list final rates", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rates"})
		return
	}

	resp := make([]dto.FinalRateResponse, 0, len(rates))
	for i := range rates {
		resp = append(resp, dto.ToFinalRateResponse(&rates[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rates": resp})
}

func (h *rateHandler) listPairs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	pairs, err := h.rateService.ListPairs(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list pairs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve pairs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

func (h *rateHandler) getBestRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	symbol := strings.ToUpper(c.Query("symbol"))
	cityCode := c.DefaultQuery("city", "moscow")
	op, ok := domain.ParseOperation(c.DefaultQuery("operation", "buy"))
	if symbol == "" || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required and operation must be buy or sell"})
		return
	}

	best, err := h.rateService.GetBestRate(c.Request.Context(), symbol, cityCode, op)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoRateAvailable), errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get best rate", slog.String("symbol", symbol), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve best rate"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToBestRateResponse(best))
}

func (h *rateHandler) getClientRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	cityCode := c.DefaultQuery("city", "moscow")

	rates, err := h.rateService.GetClientRates(c.Request.Context(), cityCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to get client rates", slog.String("city", cityCode), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve client rates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": cityCode, "rates": rates})
}

func (h *rateHandler) getFinalRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	base := c.Param("base")
	quote := c.Param("quote")
	sourceCode := c.Query("source")
	allowStale := c.Query("allowStale") == "true"

	rate, err := h.rateService.GetFinalRate(c.Request.Context(), base, quote, sourceCode, allowStale)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrStaleRate):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get final rate",
				slog.String("base", base), slog.String("quote", quote), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rate"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToFinalRateResponse(rate))
}
