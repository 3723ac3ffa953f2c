package handlers

import (
	"time"

	portssvc "github.com/EG0RIAN/tg-exhange-bot/internal/core/ports/services"
	"github.com/EG0RIAN/tg-exhange-bot/internal/middleware"
	"github.com/EG0RIAN/tg-exhange-bot/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	registerAuthRoutes(r, cfg)

	setupPublicRoutes(r, cfg, services)
	setupAdminRoutes(r, cfg, services)
}

// setupPublicRoutes configures the unauthenticated quote endpoints, rate
// limited per client IP.
func setupPublicRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	rate := limiter.Rate{Period: time.Minute, Limit: cfg.PublicRateRPM}
	limiterInstance := limiter.New(memory.NewStore(), rate)

	public := r.Group("/api/v1/rates", middleware.RateLimit(limiterInstance))
	RegisterRateRoutes(public, services.Rates)
}

// setupAdminRoutes configures the staff console endpoints behind JWT auth.
func setupAdminRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	admin := r.Group("/api/v1/admin", middleware.AuthMiddleware(cfg.JWTSecret))

	RegisterSyncRoutes(admin, services.Sync, services.Scheduler)
	RegisterRuleRoutes(admin, services.Rules)
	RegisterCityRoutes(admin, services.Cities)
}
