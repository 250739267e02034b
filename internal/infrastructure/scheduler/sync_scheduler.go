// Package scheduler runs the daily incremental sync for every connected owner.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// Runner syncs one provider for one owner.
type Runner interface {
	Provider() provider.ProviderType
	SyncUser(ctx context.Context, ownerID uuid.UUID, backfillDays *int) *entity.SyncResult
}

type Config struct {
	Hour            uint
	Minute          uint
	IncrementalDays int
}

// Summary counts the owners a run visited per provider.
type Summary struct {
	Provider  provider.ProviderType
	Owners    int
	Succeeded int
	Failed    int
}

// SyncScheduler triggers a daily sync at a fixed UTC time. Providers run in
// parallel; owners of one provider run one after another.
type SyncScheduler struct {
	scheduler    gocron.Scheduler
	integrations repository.IntegrationRepository
	runners      []Runner
	cfg          Config
	logger       *zap.Logger
}

func NewSyncScheduler(
	integrations repository.IntegrationRepository,
	clock clockwork.Clock,
	cfg Config,
	logger *zap.Logger,
	runners ...Runner,
) (*SyncScheduler, error) {
	if cfg.IncrementalDays <= 0 {
		cfg.IncrementalDays = 7
	}

	s, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ss := &SyncScheduler{
		scheduler:    s,
		integrations: integrations,
		runners:      runners,
		cfg:          cfg,
		logger:       logger.Named("scheduler"),
	}

	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(cfg.Hour, cfg.Minute, 0))),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := ss.RunOnce(ctx); err != nil {
				ss.logger.Error("Daily sync failed", zap.Error(err))
			}
		}),
		gocron.WithName("daily-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule daily sync: %w", err)
	}
	return ss, nil
}

func (s *SyncScheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("Scheduler started",
		zap.Uint("hour", s.cfg.Hour),
		zap.Uint("minute", s.cfg.Minute))
}

// Shutdown stops the scheduler and waits for a running job to return.
func (s *SyncScheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

// RunOnce syncs every CONNECTED owner of every provider. Individual sync failures
// are counted, not returned. A provider whose owners cannot be listed is reported
// in the joined error while the other providers still run to completion.
func (s *SyncScheduler) RunOnce(ctx context.Context) ([]Summary, error) {
	started := time.Now()
	summaries := make([]Summary, len(s.runners))
	errs := make([]error, len(s.runners))

	// Providers share the parent context so one provider's listing failure
	// never cancels the other's syncs.
	var g errgroup.Group
	for i, runner := range s.runners {
		i, runner := i, runner
		g.Go(func() error {
			summaries[i], errs[i] = s.runProvider(ctx, runner)
			return nil
		})
	}
	_ = g.Wait()
	if err := errors.Join(errs...); err != nil {
		return summaries, err
	}

	for _, sum := range summaries {
		s.logger.Info("Scheduled sync finished",
			zap.String("provider", sum.Provider.Slug()),
			zap.Int("owners", sum.Owners),
			zap.Int("succeeded", sum.Succeeded),
			zap.Int("failed", sum.Failed),
			zap.Duration("duration", time.Since(started)))
	}
	return summaries, nil
}

func (s *SyncScheduler) runProvider(ctx context.Context, runner Runner) (Summary, error) {
	p := runner.Provider()
	summary := Summary{Provider: p}

	owners, err := s.integrations.ListOwnersByStatus(ctx, p, model.IntegrationStatusConnected)
	if err != nil {
		return summary, fmt.Errorf("failed to list %s owners: %w", p.Slug(), err)
	}
	summary.Owners = len(owners)

	days := s.cfg.IncrementalDays
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result := runner.SyncUser(ctx, ownerID, &days)
		if result.Succeeded() {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		s.logger.Warn("Scheduled sync failed for owner",
			zap.String("provider", p.Slug()),
			zap.String("owner_id", ownerID.String()),
			zap.String("error", result.Err.Message))
	}
	return summary, nil
}
