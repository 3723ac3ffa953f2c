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

// cityHandler handles the staff console city endpoints.
type cityHandler struct {
	cityService portssvc.CitySvcFacade
}

func newCityHandler(cs portssvc.CitySvcFacade) *cityHandler {
	return &cityHandler{cityService: cs}
}

// RegisterCityRoutes registers the city routes.
func RegisterCityRoutes(rg *gin.RouterGroup, cityService portssvc.CitySvcFacade) {
	h := newCityHandler(cityService)

	cities := rg.Group("/cities")
	{
		cities.POST("", h.createCity)
		cities.GET("", h.listCities)
		cities.GET("/:code", h.getCity)
		cities.PUT("/:code", h.updateCity)
		cities.PUT("/:code/pairs", h.setPairMarkup)
	}
}

func (h *cityHandler) createCity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	city, err := h.cityService.CreateCity(c.Request.Context(), req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create city", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create city"})
		}
		return
	}

	logger.Info("City created", slog.String("city_code", city.Code))
	c.JSON(http.StatusCreated, dto.ToCityResponse(city))
}

func (h *cityHandler) listCities(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	includeDisabled := c.Query("includeDisabled") == "true"

	cities, err := h.cityService.ListCities(c.Request.Context(), includeDisabled)
	if err != nil {
		logger.Error("Failed to list cities", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cities"})
		return
	}

	resp := make([]dto.CityResponse, 0, len(cities))
	for i := range cities {
		resp = append(resp, dto.ToCityResponse(&cities[i]))
	}
	c.JSON(http.StatusOK, gin.H{"cities": resp})
}

func (h *cityHandler) getCity(c *gin.Context) {
	city, err := h.cityService.GetCity(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve city"})
		return
	}
	c.JSON(http.StatusOK, dto.ToCityResponse(city))
}

func (h *cityHandler) updateCity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.UpdateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	updaterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	city, err := h.cityService.UpdateCity(c.Request.Context(), c.Param("code"), req, updaterUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to update city", slog.String("city_code", c.Param("code")), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update city"})
		return
	}
	c.JSON(http.StatusOK, dto.ToCityResponse(city))
}

func (h *cityHandler) setPairMarkup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SetCityPairMarkupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	updaterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	markup, err := h.cityService.SetPairMarkup(c.Request.Context(), c.Param("code"), req, updaterUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to set pair markup", slog.String("city_code", c.Param("code")), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set pair markup"})
		}
		return
	}
	c.JSON(http.StatusOK, markup)
}
