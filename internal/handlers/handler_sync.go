package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
	"github.com/EG0RIAN/tg-exhange-bot/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// syncHandler exposes operator controls over the sync engine.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
	scheduler   portssvc.SchedulerSvcFacade
}

func newSyncHandler(ss portssvc.SyncSvcFacade, sched portssvc.SchedulerSvcFacade) *syncHandler {
	return &syncHandler{syncService: ss, scheduler: sched}
}

// RegisterSyncRoutes registers the sync control routes.
func RegisterSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvcFacade, scheduler portssvc.SchedulerSvcFacade) {
	h := newSyncHandler(syncService, scheduler)

	sync := rg.Group("/sync")
	{
		sync.POST("", h.triggerSync)
		sync.GET("/status", h.getStatus)
		sync.GET("/logs", h.listSyncLogs)
	}
	rg.GET("/vwap", h.calculateVWAP)
}

func (h *syncHandler) triggerSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceCode := c.Query("source")

	results, err := h.scheduler.TriggerSync(c.Request.Context(), sourceCode)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("Manual sync failed", slog.String("source", sourceCode), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		}
		return
	}

	resp := make([]dto.SyncResultResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, dto.ToSyncResultResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": resp})
}

func (h *syncHandler) calculateVWAP(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	sourceCode := c.Query("source")
	symbol := c.Query("symbol")
	op, opOK := domain.ParseOperation(c.DefaultQuery("operation", "buy"))
	amount, amountErr := decimal.NewFromString(c.DefaultQuery("amount", "0"))
	if sourceCode == "" || symbol == "" || !opOK || amountErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source, symbol and a decimal amount are required; operation must be buy or sell"})
		return
	}

	quote, err := h.syncService.CalculateVWAP(c.Request.Context(), sourceCode, symbol, op, amount)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoPriceAvailable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrSourceUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			logger.Error("VWAP calculation failed",
				slog.String("source", sourceCode), slog.String("symbol", symbol), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate VWAP"})
		}
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *syncHandler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

func (h *syncHandler) listSyncLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceCode := c.Query("source")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.syncService.ListSyncLogs(c.Request.Context(), sourceCode, limit)
	if err != nil {
		logger.Error("Failed to list sync logs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sync logs"})
		return
	}

	resp := make([]dto.SyncLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, dto.ToSyncLogResponse(l))
	}
	c.JSON(http.StatusOK, gin.H{"logs": resp})
}
