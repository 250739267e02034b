package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/app"
	"github.com/SuarfelG/amber-business-health-monitor/internal/config"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/database"
	httpServer "github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/http"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/scheduler"
	pkglogger "github.com/SuarfelG/amber-business-health-monitor/pkg/logger"
	"github.com/SuarfelG/amber-business-health-monitor/pkg/tracing"
)

func main() {
	// Local development reads secrets from .env; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := pkglogger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("env", cfg.Service.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Service.Name, cfg.Service.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	a, err := app.New(cfg, db, logger, clockwork.NewRealClock())
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	var syncScheduler *scheduler.SyncScheduler
	if cfg.Sync.SchedulerEnabled {
		syncScheduler, err = a.Scheduler()
		if err != nil {
			logger.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		syncScheduler.Start()
	}

	httpSrv := httpServer.NewServer(cfg, logger, db, a.Handlers())
	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	if syncScheduler != nil {
		if err := syncScheduler.Shutdown(); err != nil {
			logger.Error("Failed to shutdown sync scheduler", zap.Error(err))
		}
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close application", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
