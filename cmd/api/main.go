package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"battery-arbitrage/internal/api"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/logger"
	"battery-arbitrage/internal/metrics"
)

func main() {
	log := logger.New("api")
	if err := logger.SetLevel(os.Getenv("LOG_LEVEL")); err != nil {
		log.Fatal().Err(err).Msg("invalid LOG_LEVEL")
	}

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	batteryDir := config.BatteryDir()
	if info, err := os.Stat(batteryDir); err != nil || !info.IsDir() {
		log.Warn().Err(err).Str("dir", batteryDir).Msg("battery directory not found")
	}

	rec, err := metrics.NewRecorder()
	if err != nil {
		log.Fatal().Err(err).Msg("register metrics")
	}

	ttl := data.ResultTTLFromEnv()
	results := data.NewResultCache[*backtest.Result](ttl)
	defer results.Close()

	router := api.NewRouter(api.Deps{
		Results:    results,
		Metrics:    rec,
		Gatherer:   prometheus.DefaultGatherer,
		BatteryDir: batteryDir,
		Log:        log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Dur("result_ttl", ttl).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
