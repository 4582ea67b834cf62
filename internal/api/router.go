package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"battery-arbitrage/internal/api/handlers"
	"battery-arbitrage/internal/api/middleware"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/metrics"
)

// Deps is what the HTTP server needs from main.
type Deps struct {
	Results    *data.ResultCache[*backtest.Result]
	Metrics    *metrics.Recorder
	Gatherer   prometheus.Gatherer
	BatteryDir string
	Log        zerolog.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))

	backtestHandler := handlers.NewBacktestHandler(d.Results, d.Metrics, d.BatteryDir, d.Log)
	batteryHandler := handlers.NewBatteryHandler(d.BatteryDir, d.Log)
	strategyHandler := handlers.NewStrategyHandler()
	rankHandler := handlers.NewRankHandler(d.BatteryDir, d.Log)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/ledger", backtestHandler.GetLedger)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/strategies", strategyHandler.ListStrategies)

		api.POST("/rank", rankHandler.RankRegions)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
