// Package app wires repositories, provider clients, sync engines and
// services into one object graph shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	handlers "github.com/SuarfelG/amber-business-health-monitor/internal/adapter/handler/http"
	"github.com/SuarfelG/amber-business-health-monitor/internal/adapter/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/config"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/crypto"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/database"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/fetch"
	httpServer "github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/http"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/metrics"
	providerFactory "github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/scheduler"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/worker"
	"github.com/SuarfelG/amber-business-health-monitor/internal/usecase"
	"github.com/SuarfelG/amber-business-health-monitor/pkg/messaging"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Clock  clockwork.Clock

	Repos     *database.Repositories
	Tasks     *worker.Runner
	SyncTasks *worker.Runner
	Publisher messaging.Publisher

	Engines  []*usecase.SyncEngine
	Gateways []*usecase.WebhookGateway

	Integrations *usecase.IntegrationService
	Metrics      *usecase.MetricsService
	Health       *usecase.HealthService
}

// New builds the object graph on top of an open database.
func New(cfg *config.Config, db *gorm.DB, logger *zap.Logger, clock clockwork.Clock) (*App, error) {
	encryption, err := crypto.NewAESEncryptionService(cfg.Service.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	repos := database.NewRepositories(db, logger)
	credentials := repository.NewCredentialStore(repos.Integration, encryption, logger)

	fc := fetch.NewClient(fetch.Config{
		MaxRetries: cfg.Sync.MaxRetries,
		BaseDelay:  cfg.Sync.BaseDelay,
		Timeout:    cfg.Sync.Timeout,
	}, logger.Named("fetch"), fetch.WithRetryHook(metrics.ObserveFetchRetry))
	clients := providerFactory.NewFactory(cfg, fc, clock, logger)

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	tasks := worker.NewRunner(logger.Named("worker"), cfg.Sync.TaskTimeout)
	syncTasks := worker.NewRunner(logger.Named("sync"), cfg.Sync.SyncTaskTimeout)

	revenue := usecase.NewRevenueAggregationService(repos.StripeMirror, repos.Metrics, clock, logger)
	crm := usecase.NewCRMAggregationService(repos.CRMMirror, repos.Metrics, clock, logger)

	opts := usecase.SyncOptions{
		BackfillDays:    cfg.Sync.BackfillDays,
		IncrementalDays: cfg.Sync.IncrementalDays,
	}
	if cfg.Redis.Enabled() {
		opts.NotifyChannel = cfg.Redis.Channel
	}

	stripeEngine := usecase.NewSyncEngine(
		usecase.NewStripeSyncer(clients, repos.StripeMirror, logger),
		repos.Integration, credentials, repos.Audit, revenue, tasks, publisher, clock, opts, logger,
	)
	ghlEngine := usecase.NewSyncEngine(
		usecase.NewGHLSyncer(clients, repos.CRMMirror, logger),
		repos.Integration, credentials, repos.Audit, crm, tasks, publisher, clock, opts, logger,
	)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Clock:     clock,
		Repos:     repos,
		Tasks:     tasks,
		SyncTasks: syncTasks,
		Publisher: publisher,
		Engines:   []*usecase.SyncEngine{stripeEngine, ghlEngine},
	}

	a.Gateways = a.newGateways(map[provider.ProviderType]gatewayParts{
		provider.ProviderStripe: {
			secret:   cfg.Stripe.WebhookSecret,
			resolver: usecase.NewStripeOwnerResolver(repos.Integration, repos.StripeMirror),
			runner:   stripeEngine,
			dispatch: usecase.StripeDispatchTypes,
		},
		provider.ProviderGoHighLevel: {
			secret:   cfg.GHL.WebhookSecret,
			resolver: usecase.NewGHLOwnerResolver(repos.Integration),
			runner:   ghlEngine,
			dispatch: usecase.GHLDispatchTypes,
		},
	})

	a.Integrations = usecase.NewIntegrationService(
		repos.Integration, credentials, repos.Audit, clients, syncTasks, clock, logger,
		stripeEngine, ghlEngine,
	)
	a.Metrics = usecase.NewMetricsService(repos.Metrics, tasks, logger, revenue, crm)
	a.Health = usecase.NewHealthService(repos.Metrics, clock, logger)

	return a, nil
}

type gatewayParts struct {
	secret   string
	resolver usecase.OwnerResolver
	runner   usecase.SyncRunner
	dispatch []string
}

// newGateways creates a gateway for every decoder with wiring. A gateway without
// a webhook secret rejects every delivery with 400.
func (a *App) newGateways(parts map[provider.ProviderType]gatewayParts) []*usecase.WebhookGateway {
	var gateways []*usecase.WebhookGateway
	for _, decoder := range providerFactory.WebhookDecoders() {
		p, ok := parts[decoder.Provider()]
		if !ok {
			continue
		}
		if p.secret == "" {
			a.Logger.Warn("Webhook secret not configured, deliveries will be rejected",
				zap.String("provider", decoder.Provider().Slug()))
		}
		gateways = append(gateways, usecase.NewWebhookGateway(
			decoder,
			p.resolver,
			a.Repos.Webhook,
			p.runner,
			a.SyncTasks,
			a.Clock,
			usecase.WebhookGatewayConfig{
				Secret:          p.secret,
				DispatchTypes:   p.dispatch,
				IncrementalDays: a.Config.Sync.IncrementalDays,
			},
			a.Logger,
		))
	}
	return gateways
}

// Handlers builds the HTTP handlers for the API server.
func (a *App) Handlers() httpServer.Handlers {
	ingesters := make([]handlers.WebhookIngester, 0, len(a.Gateways))
	for _, g := range a.Gateways {
		ingesters = append(ingesters, g)
	}
	return httpServer.Handlers{
		Webhooks:     handlers.NewWebhookHandler(a.Logger, ingesters...),
		Integrations: handlers.NewIntegrationHandler(a.Logger, a.Integrations),
		Metrics:      handlers.NewMetricsHandler(a.Logger, a.Metrics, a.Health),
	}
}

// Scheduler builds the daily sync scheduler over every engine.
func (a *App) Scheduler() (*scheduler.SyncScheduler, error) {
	runners := make([]scheduler.Runner, 0, len(a.Engines))
	for _, e := range a.Engines {
		runners = append(runners, e)
	}
	return scheduler.NewSyncScheduler(a.Repos.Integration, a.Clock, scheduler.Config{
		Hour:            a.Config.Sync.ScheduleHour,
		Minute:          a.Config.Sync.ScheduleMinute,
		IncrementalDays: a.Config.Sync.IncrementalDays,
	}, a.Logger, runners...)
}

// Engine returns the sync engine of p, or nil.
func (a *App) Engine(p provider.ProviderType) *usecase.SyncEngine {
	for _, e := range a.Engines {
		if e.Provider() == p {
			return e
		}
	}
	return nil
}

// Close waits for background tasks and releases the publisher.
func (a *App) Close(ctx context.Context) error {
	if err := a.SyncTasks.Shutdown(ctx); err != nil {
		a.Logger.Warn("Sync tasks did not finish before shutdown", zap.Error(err))
	}
	if err := a.Tasks.Shutdown(ctx); err != nil {
		a.Logger.Warn("Background tasks did not finish before shutdown", zap.Error(err))
	}
	return a.Publisher.Close()
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (messaging.Publisher, error) {
	if !cfg.Redis.Enabled() {
		return messaging.NopPublisher{}, nil
	}
	publisher, err := messaging.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Publishing sync notifications", zap.String("channel", cfg.Redis.Channel))
	return publisher, nil
}
