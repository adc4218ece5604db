// Package main is the entry point for the covered-call evaluation service.
// It serves option-chain analysis over HTTP, backed by a Tradier market-data
// client with a SQLite response cache.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/callwriter/internal/clientdata"
	"github.com/aristath/callwriter/internal/clients/tradier"
	"github.com/aristath/callwriter/internal/config"
	"github.com/aristath/callwriter/internal/database"
	"github.com/aristath/callwriter/internal/marketdata"
	"github.com/aristath/callwriter/internal/modules/analysis"
	"github.com/aristath/callwriter/internal/scheduler"
	"github.com/aristath/callwriter/internal/server"
	"github.com/aristath/callwriter/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting callwriter")

	// Cache database holds upstream responses only and can be deleted at any time
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := cacheDB.Migrate(clientdata.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())

	if cfg.TradierAPIKey == "" {
		log.Warn().Msg("TRADIER_API_KEY not set - market data requests will be rejected upstream")
	}
	tradierClient := tradier.NewClient(cfg.TradierBaseURL, cfg.TradierAPIKey, cacheRepo, log)

	marketService := marketdata.NewService(tradierClient, cfg.VolatilityWindow, log)
	analyzer := analysis.NewAnalyzer(cfg.AnalyzerConfig(), log)
	analysisService := analysis.NewService(marketService, analyzer, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.CleanupSchedule, clientdata.NewCleanupJob(cacheRepo, cacheDB, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		CacheDB:   cacheDB,
		Config:    cfg,
		Analysis:  analysisService,
		Scheduler: sched,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Int("workers", cfg.WorkerCount).
		Int("grid_points", cfg.GridPoints).
		Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
