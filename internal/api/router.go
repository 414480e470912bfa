package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/api/handlers"
	"github.com/clientpulse/clientpulse-backend-go/internal/api/middleware"
	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/metrics"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/scoring"
	"github.com/clientpulse/clientpulse-backend-go/internal/database"
	"github.com/clientpulse/clientpulse-backend-go/internal/scheduler"
)

// NewRouter creates and configures the main HTTP router.
func NewRouter(cfg *config.Config, repos *database.Repositories, scorer *scoring.Service, refresher *scheduler.Refresher, collector metrics.Collector, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.MetricsMiddleware(collector))

	h := handlers.NewHandlers(cfg, repos, scorer, refresher, logger)

	router.GET("/health", h.Health)
	if cfg.Monitoring.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		accounts := api.Group("/accounts")
		{
			accounts.GET("", h.ListAccounts)
			accounts.GET("/:id/360", h.GetAccount360)
			accounts.GET("/:id/health", h.GetAccountHealth)
			accounts.GET("/:id/health/history", h.GetHealthHistory)
			accounts.GET("/:id/alerts", h.GetAccountAlerts)
			accounts.GET("/:id/insights", h.GetAccountInsights)
			accounts.GET("/:id/churn", h.GetAccountChurn)
			accounts.POST("/:id/refresh", h.RefreshAccount)
		}

		portfolio := api.Group("/portfolio")
		{
			portfolio.GET("/summary", h.GetPortfolioSummary)
			portfolio.GET("/insights", h.GetPortfolioInsights)
		}

		alerts := api.Group("/alerts")
		{
			alerts.POST("/:id/acknowledge", h.AcknowledgeAlert)
			alerts.POST("/:id/snooze", h.SnoozeAlert)
			alerts.POST("/:id/resolve", h.ResolveAlert)
		}
	}

	return router
}
