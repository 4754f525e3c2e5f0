package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pantrypal/backend/config"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	}

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.POST("/resolve", handler.ResolveProduct)
		}

		scans := v1.Group("/scan")
		{
			scans.GET("/history", handler.ScanHistory)

			flows := scans.Group("/flows")
			{
				flows.POST("", handler.CreateFlow)
				flows.GET("/:id", handler.GetFlow)
				flows.POST("/:id/camera", handler.BeginCamera)
				flows.POST("/:id/frames", handler.PushFrame)
				flows.POST("/:id/manual", handler.SubmitManual)
				flows.POST("/:id/confirm", handler.ConfirmFlow)
				flows.POST("/:id/rescan", handler.RescanFlow)
				flows.POST("/:id/cancel", handler.CancelFlow)
				flows.DELETE("/:id", handler.DeleteFlow)
			}
		}
	}

	return router
}
