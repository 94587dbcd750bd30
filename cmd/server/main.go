// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medstock/backend-go/internal/api"
	"github.com/medstock/backend-go/internal/cache"
	"github.com/medstock/backend-go/internal/config"
	"github.com/medstock/backend-go/internal/forecast"
	"github.com/medstock/backend-go/internal/repository/postgres"
	"github.com/medstock/backend-go/internal/service"
	"github.com/medstock/backend-go/internal/storage"
	"github.com/medstock/backend-go/pkg/logger"
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

	// Optional S3-compatible archive for trained bundles
	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Model archive disabled: client init failed")
		} else {
			archive = client
		}
	}

	// Repositories
	inventories := postgres.NewInventoryRepository(db.DB)
	transactions := postgres.NewTransactionRepository(db.DB)
	hospitals := postgres.NewHospitalRepository(db.DB)
	alerts := postgres.NewAlertRepository(db)
	observations := postgres.NewObservationRepository(db.DB)

	// Model plumbing
	store := forecast.NewModelStore(cfg.Model.Dir, cfg.Model.Name, archive)
	predictor := forecast.NewShortagePredictor(store)
	trainer := forecast.NewTrainer(forecast.TrainerOptions{
		MinRealSamples:   cfg.Training.MinRealSamples,
		SyntheticSamples: cfg.Training.SyntheticSamples,
		Seed:             cfg.Training.Seed,
		HorizonDays:      cfg.Training.HorizonDays,
		SafetyFactor:     cfg.Training.SafetyFactor,
	}, observations, store)

	riskCache, err := cache.NewRiskCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Risk cache disabled: redis unavailable")
		riskCache = cache.NewNoopRiskCache()
	}

	forecaster := forecast.NewHeuristicForecaster(inventories, transactions, alerts, cfg.Forecast.HorizonDays)

	services := &api.Services{
		PredictionService: service.NewPredictionService(
			predictor, trainer, observations, inventories, hospitals, alerts,
			riskCache, cfg.Forecast.BatchResultLimit),
		ForecastService: service.NewForecastService(forecaster),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
