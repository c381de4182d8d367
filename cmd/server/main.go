// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/demandcast/backend-go/internal/api"
	"github.com/demandcast/backend-go/internal/cache"
	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/demandcast/backend-go/internal/predictor"
	"github.com/demandcast/backend-go/internal/repository"
	"github.com/demandcast/backend-go/internal/repository/postgres"
	"github.com/demandcast/backend-go/internal/service"
	"github.com/demandcast/backend-go/internal/storage"
	"github.com/demandcast/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	window := time.Duration(cfg.Forecast.BatchWindowSeconds) * time.Second
	store := repository.NewForecastRepository(db, window)

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Report cache unavailable, continuing without it")
		reportCache = cache.NewNoopReportCache()
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Upload archive unavailable, continuing without it")
			archive = nil
		}
	}

	// A remote predictor is used when configured; otherwise forecasts fall
	// back to the local smoothing model.
	var pred predictor.Predictor
	if cfg.Predictor.URL != "" {
		pred = predictor.NewHTTPPredictor(cfg.Predictor.URL, cfg.Predictor.Timeout)
		logger.Log.Info().Str("url", cfg.Predictor.URL).Msg("Using remote predictor")
	} else {
		pred = predictor.NewSmoothingPredictor()
		logger.Log.Info().Msg("Using local smoothing predictor")
	}

	orchestrator := forecast.NewOrchestrator(pred, forecast.Config{
		WorkerCount:    cfg.Forecast.WorkerCount,
		PredictTimeout: cfg.Predictor.Timeout,
	})

	// Initialize services
	forecastService := service.NewForecastService(orchestrator, store, reportCache, archive, cfg.Forecast)
	reportService := service.NewReportService(store, reportCache)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		ForecastService: forecastService,
		ReportService:   reportService,
		DefaultHorizon:  cfg.Forecast.DefaultHorizon,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
