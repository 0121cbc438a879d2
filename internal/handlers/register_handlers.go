package handlers

import (
	"time"

	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/SscSPs/community_billing/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	setupCORS(r, cfg)

	registerOperationalRoutes(r)

	return setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) error {
	limiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}

	// Rate limiting runs after auth so that callers are limited by token subject.
	v1 := r.Group("/api/v1",
		middleware.RequestMetrics(),
		middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer),
		middleware.RateLimit(limiter),
	)

	registerAccountRoutes(v1, service.Ledger, service.Payout)
	registerLedgerRoutes(v1, service.Ledger)
	registerReferralRoutes(v1, service.Referral)
	registerEarningsRoutes(v1, service.Earnings)
	registerPayoutRoutes(v1, service.Payout)
	return nil
}

// setupCORS allows browser callers from the configured origins only.
func setupCORS(r *gin.Engine, cfg *config.Config) {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}
