package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/EG0RIAN/tg-exhange-bot/internal/apperrors"
	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
	"github.com/EG0RIAN/tg-exhange-bot/internal/dto"
	"github.com/EG0RIAN/tg-exhange-bot/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ruleHandler handles the staff console markup rule endpoints.
type ruleHandler struct {
	ruleService portssvc.RuleSvcFacade
}

func newRuleHandler(rs portssvc.RuleSvcFacade) *ruleHandler {
	return &ruleHandler{ruleService: rs}
}

// RegisterRuleRoutes registers the markup rule routes.
func RegisterRuleRoutes(rg *gin.RouterGroup, ruleService portssvc.RuleSvcFacade) {
	h := newRuleHandler(ruleService)

	rules := rg.Group("/rules")
	{
		rules.POST("", h.createRule)
		rules.GET("", h.listRules)
		rules.GET("/:id", h.getRule)
		rules.PUT("/:id", h.updateRule)
		rules.DELETE("/:id", h.deleteRule)
	}
}

func (h *ruleHandler) createRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateMarkupRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to create markup rule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create rule"})
		return
	}

	logger.Info("Markup rule created", slog.String("rule_id", rule.RuleID), slog.String("level", string(rule.Level)))
	c.JSON(http.StatusCreated, dto.ToMarkupRuleResponse(rule))
}

func (h *ruleHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	includeDeleted := c.Query("includeDeleted") == "true"

	rules, err := h.ruleService.ListRules(c.Request.Context(), includeDeleted)
	if err != nil {
		logger.Error("Failed to list markup rules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rules"})
		return
	}

	resp := make([]dto.MarkupRuleResponse, 0, len(rules))
	for i := range rules {
		resp = append(resp, dto.ToMarkupRuleResponse(&rules[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rules": resp})
}

func (h *ruleHandler) getRule(c *gin.Context) {
	rule, err := h.ruleService.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rule"})
		return
	}
	c.JSON(http.StatusOK, dto.ToMarkupRuleResponse(rule))
}

func (h *ruleHandler) updateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.UpdateMarkupRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	updaterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), c.Param("id"), req, updaterUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update markup rule", slog.String("rule_id", c.Param("id")), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rule"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToMarkupRuleResponse(rule))
}

func (h *ruleHandler) deleteRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	deleterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.ruleService.DeleteRule(c.Request.Context(), c.Param("id"), deleterUserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to delete markup rule", slog.String("rule_id", c.Param("id")), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rule"})
		return
	}
	c.Status(http.StatusNoContent)
}
