// Command recalculate re-syncs and re-aggregates owners outside the daily
// schedule, and lists webhooks that could not be routed.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/app"
	"github.com/SuarfelG/amber-business-health-monitor/internal/config"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/database"
	pkglogger "github.com/SuarfelG/amber-business-health-monitor/pkg/logger"
)

func main() {
	ownerFlag := flag.String("owner", "", "owner id to recalculate")
	backfill := flag.Bool("backfill", false, "re-sync the full backfill window before recalculating")
	all := flag.Bool("all", false, "run the daily incremental sync for every connected owner")
	quarantine := flag.Int("quarantine", 0, "list up to N unrouted webhook events per provider")
	flag.Parse()

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

	ctx := context.Background()
	defer func() {
		if err := a.Close(ctx); err != nil {
			logger.Error("Failed to close application", zap.Error(err))
		}
	}()

	if *quarantine > 0 {
		listQuarantined(ctx, a, *quarantine)
	}

	if *all {
		s, err := a.Scheduler()
		if err != nil {
			logger.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		summaries, err := s.RunOnce(ctx)
		if err != nil {
			logger.Error("Daily sync finished with errors", zap.Error(err))
		}
		for _, sum := range summaries {
			logger.Info("Provider sync summary",
				zap.String("provider", sum.Provider.Slug()),
				zap.Int("owners", sum.Owners),
				zap.Int("succeeded", sum.Succeeded),
				zap.Int("failed", sum.Failed))
		}
		if err := s.Shutdown(); err != nil {
			logger.Warn("Failed to stop scheduler", zap.Error(err))
		}
	}

	if *ownerFlag == "" {
		return
	}
	ownerID, err := uuid.Parse(*ownerFlag)
	if err != nil {
		logger.Fatal("Invalid owner id", zap.String("owner", *ownerFlag), zap.Error(err))
	}

	if *backfill {
		for _, engine := range a.Engines {
			result := engine.BackfillUser(ctx, ownerID)
			logger.Info("Backfill finished",
				zap.String("provider", engine.Provider().Slug()),
				zap.Bool("succeeded", result.Succeeded()),
				zap.Int("records", result.Total()),
				zap.Any("error", result.Err))
		}
	}

	if err := a.Metrics.RecalculateNow(ctx, ownerID); err != nil {
		logger.Fatal("Failed to recalculate metrics", zap.Error(err))
	}
	logger.Info("Metrics recalculated", zap.String("owner_id", ownerID.String()))
}

func listQuarantined(ctx context.Context, a *app.App, limit int) {
	for _, p := range provider.ProviderTypes {
		events, err := a.Repos.Webhook.ListUnprocessed(ctx, p, limit)
		if err != nil {
			a.Logger.Error("Failed to list quarantined webhooks", zap.String("provider", p.Slug()), zap.Error(err))
			continue
		}
		for _, e := range events {
			a.Logger.Info("Quarantined webhook",
				zap.String("provider", p.Slug()),
				zap.String("event_id", e.ExternalEventID),
				zap.String("event_type", e.EventType),
				zap.Time("received_at", e.ReceivedAt))
		}
		a.Logger.Info("Quarantine listing", zap.String("provider", p.Slug()), zap.Int("count", len(events)))
	}
}
