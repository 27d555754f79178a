package api

import (
	"github.com/gin-gonic/gin"
	"github.com/plopa1535/BF-Interestrate-DART/internal/api/handlers"
	"github.com/plopa1535/BF-Interestrate-DART/internal/middleware"
)

// Handlers bundles the constructed handler set for route wiring.
type Handlers struct {
	Rates    *handlers.RatesHandler
	Dart     *handlers.DartHandler
	Analysis *handlers.AnalysisHandler
	Cache    *handlers.CacheHandler
	Health   *handlers.HealthHandler
}

// SetupRoutes wires the /api/v1 surface.
func SetupRoutes(router *gin.Engine, h Handlers) {
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.HealthCheck)

		rates := v1.Group("/rates")
		{
			rates.GET("", h.Rates.GetRates)
			rates.GET("/latest", h.Rates.GetLatestRates)
			rates.GET("/coupling", h.Rates.GetCoupling)
			rates.GET("/correlation", h.Rates.GetCorrelation)
			rates.GET("/cointegration", h.Rates.GetCointegration)
		}

		dart := v1.Group("/dart")
		{
			dart.GET("/companies", h.Dart.GetCompanies)
			dart.POST("/analyze", h.Dart.AnalyzeDuration)
		}

		v1.GET("/analysis", h.Analysis.GetAnalysis)
		v1.GET("/news", h.Analysis.GetNews)
		v1.POST("/chat", h.Analysis.Chat)
		v1.GET("/forecast", h.Analysis.GetForecast)

		v1.POST("/cache/clear", h.Cache.ClearAll)
	}
}
