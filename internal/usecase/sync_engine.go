package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/metrics"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/worker"
	"github.com/SuarfelG/amber-business-health-monitor/pkg/messaging"
)

const tracerName = "github.com/SuarfelG/amber-business-health-monitor/internal/usecase"

// SyncStep mirrors one entity type. Run returns the number of records upserted,
// which is partial when it fails.
type SyncStep struct {
	Entity string
	Run    func(ctx context.Context, createdAfter int64) (int, error)
}

// ProviderSyncer supplies a provider's steps in processing order. Parents come
// before the children that reference them.
type ProviderSyncer interface {
	Provider() provider.ProviderType
	Steps(ownerID uuid.UUID, cred provider.Credential) []SyncStep
}

// SyncRunner is what schedulers, webhooks and handlers trigger.
type SyncRunner interface {
	Provider() provider.ProviderType
	SyncUser(ctx context.Context, ownerID uuid.UUID, backfillDays *int) *entity.SyncResult
	BackfillUser(ctx context.Context, ownerID uuid.UUID) *entity.SyncResult
}

// SyncOptions sets the lookback windows.
type SyncOptions struct {
	BackfillDays    int
	IncrementalDays int
	// NotifyChannel is the pub/sub channel for completion notices.
	NotifyChannel string
}

// SyncNotification is published after every finished run.
type SyncNotification struct {
	OwnerID    uuid.UUID             `json:"owner_id"`
	Provider   provider.ProviderType `json:"provider"`
	Succeeded  bool                  `json:"succeeded"`
	Counts     []entity.EntityCount  `json:"counts"`
	Error      string                `json:"error,omitempty"`
	FinishedAt time.Time             `json:"finished_at"`
}

// SyncEngine mirrors one provider's records for an owner and keeps the
// integration's status current. It holds no per-run state.
type SyncEngine struct {
	syncer       ProviderSyncer
	integrations repository.IntegrationRepository
	credentials  repository.CredentialStore
	audit        repository.AuditRepository
	aggregator   MetricsCalculator
	tasks        worker.Submitter
	publisher    messaging.Publisher
	clock        clockwork.Clock
	opts         SyncOptions
	tracer       trace.Tracer
	logger       *zap.Logger
}

func NewSyncEngine(
	syncer ProviderSyncer,
	integrations repository.IntegrationRepository,
	credentials repository.CredentialStore,
	audit repository.AuditRepository,
	aggregator MetricsCalculator,
	tasks worker.Submitter,
	publisher messaging.Publisher,
	clock clockwork.Clock,
	opts SyncOptions,
	logger *zap.Logger,
) *SyncEngine {
	if opts.BackfillDays <= 0 {
		opts.BackfillDays = 90
	}
	if opts.IncrementalDays <= 0 {
		opts.IncrementalDays = 7
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &SyncEngine{
		syncer:       syncer,
		integrations: integrations,
		credentials:  credentials,
		audit:        audit,
		aggregator:   aggregator,
		tasks:        tasks,
		publisher:    publisher,
		clock:        clock,
		opts:         opts,
		tracer:       otel.Tracer(tracerName),
		logger:       logger.With(zap.String("provider", syncer.Provider().Slug())),
	}
}

func (e *SyncEngine) Provider() provider.ProviderType {
	return e.syncer.Provider()
}

// BackfillUser syncs the full backfill window.
func (e *SyncEngine) BackfillUser(ctx context.Context, ownerID uuid.UUID) *entity.SyncResult {
	days := e.opts.BackfillDays
	return e.SyncUser(ctx, ownerID, &days)
}

// SyncUser mirrors records created within the lookback window. Without backfillDays
// the window is the backfill window for a never-synced integration and the
// incremental window otherwise. Failures are reported in the result, never
// returned or panicked.
func (e *SyncEngine) SyncUser(ctx context.Context, ownerID uuid.UUID, backfillDays *int) (result *entity.SyncResult) {
	p := e.syncer.Provider()
	started := e.clock.Now()
	result = &entity.SyncResult{Provider: p, StartedAt: started}
	log := e.logger.With(zap.String("owner_id", ownerID.String()))

	ctx, span := e.tracer.Start(ctx, "sync."+p.Slug(), trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("provider", p.Slug()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Sync panicked", zap.Any("panic", r), zap.Stack("stack"))
			e.fail(ctx, span, ownerID, result, fmt.Sprintf("panic: %v", r))
		}
		metrics.SyncDuration.WithLabelValues(p.Slug()).Observe(e.clock.Since(started).Seconds())
	}()

	integration, err := e.integrations.Get(ctx, ownerID, p)
	if err != nil {
		e.fail(ctx, span, ownerID, result, err.Error())
		return result
	}
	result.BackfillDays = e.lookbackDays(integration, backfillDays)
	span.SetAttributes(attribute.Int("sync.backfill_days", result.BackfillDays))

	cred, err := e.credentials.Get(ctx, ownerID, p)
	if err != nil {
		e.fail(ctx, span, ownerID, result, err.Error())
		return result
	}
	if cred == nil {
		result.Err = &entity.SyncError{Kind: entity.SyncErrorNotConnected, Message: p.Slug() + " is not connected"}
		result.FinishedAt = e.clock.Now()
		metrics.SyncRunsTotal.WithLabelValues(p.Slug(), metrics.OutcomeNotConnected).Inc()
		span.SetStatus(codes.Error, result.Err.Message)
		log.Warn("Skipping sync for disconnected integration")
		return result
	}

	log.Info("Sync started", zap.Int("backfill_days", result.BackfillDays))
	e.record(ctx, ownerID, model.AuditActionSyncStarted, map[string]interface{}{
		"backfill_days": result.BackfillDays,
	})

	createdAfter := started.AddDate(0, 0, -result.BackfillDays).Unix()
	for _, step := range e.syncer.Steps(ownerID, *cred) {
		n, err := step.Run(ctx, createdAfter)
		result.Counts = append(result.Counts, entity.EntityCount{Entity: step.Entity, Count: n})
		metrics.SyncRecordsTotal.WithLabelValues(p.Slug(), step.Entity).Add(float64(n))
		if err != nil {
			log.Error("Sync step failed", zap.String("entity", step.Entity), zap.Int("processed", n), zap.Error(err))
			e.fail(ctx, span, ownerID, result, fmt.Sprintf("%s: %v", step.Entity, err))
			return result
		}
	}

	now := e.clock.Now()
	if err := e.integrations.MarkSyncSucceeded(ctx, ownerID, p, now); err != nil {
		e.fail(ctx, span, ownerID, result, err.Error())
		return result
	}
	result.FinishedAt = now

	metrics.SyncRunsTotal.WithLabelValues(p.Slug(), metrics.OutcomeSuccess).Inc()
	e.record(ctx, ownerID, model.AuditActionSyncCompleted, map[string]interface{}{
		"counts": result.Counts,
	})
	e.notify(ctx, ownerID, result)
	e.scheduleAggregation(ownerID)

	log.Info("Sync completed",
		zap.Int("records", result.Total()),
		zap.Duration("duration", now.Sub(started)))
	return result
}

func (e *SyncEngine) lookbackDays(integration *model.Integration, requested *int) int {
	switch {
	case requested != nil && *requested > 0:
		return *requested
	case integration == nil || integration.LastSyncAt == nil:
		return e.opts.BackfillDays
	default:
		return e.opts.IncrementalDays
	}
}

// fail records a sync failure. Storage errors while recording are logged only.
func (e *SyncEngine) fail(ctx context.Context, span trace.Span, ownerID uuid.UUID, result *entity.SyncResult, message string) {
	p := e.syncer.Provider()
	result.Err = &entity.SyncError{Kind: entity.SyncErrorFailure, Message: message}
	result.FinishedAt = e.clock.Now()

	span.SetStatus(codes.Error, message)
	metrics.SyncRunsTotal.WithLabelValues(p.Slug(), metrics.OutcomeFailure).Inc()

	if err := e.integrations.MarkSyncFailed(ctx, ownerID, p, message); err != nil {
		e.logger.Error("Failed to record sync failure",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
	}
	e.record(ctx, ownerID, model.AuditActionSyncFailed, map[string]interface{}{
		"error":  message,
		"counts": result.Counts,
	})
	e.notify(ctx, ownerID, result)

	e.logger.Error("Sync failed",
		zap.String("owner_id", ownerID.String()),
		zap.String("error", message))
}

func (e *SyncEngine) record(ctx context.Context, ownerID uuid.UUID, action model.AuditAction, details map[string]interface{}) {
	recordAudit(ctx, e.audit, e.clock, e.logger, ownerID, e.syncer.Provider(), action, details)
}

func (e *SyncEngine) notify(ctx context.Context, ownerID uuid.UUID, result *entity.SyncResult) {
	if e.opts.NotifyChannel == "" {
		return
	}
	msg := SyncNotification{
		OwnerID:    ownerID,
		Provider:   result.Provider,
		Succeeded:  result.Succeeded(),
		Counts:     result.Counts,
		FinishedAt: result.FinishedAt,
	}
	if result.Err != nil {
		msg.Error = result.Err.Message
	}
	if err := e.publisher.Publish(ctx, e.opts.NotifyChannel, msg); err != nil {
		e.logger.Warn("Failed to publish sync notification",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
	}
}

// scheduleAggregation refreshes the week and month buckets in the background.
func (e *SyncEngine) scheduleAggregation(ownerID uuid.UUID) {
	if e.aggregator == nil || e.tasks == nil {
		return
	}
	aggregator := e.aggregator
	e.tasks.Submit("aggregate."+aggregator.Family(), func(ctx context.Context) error {
		for _, pt := range []entity.PeriodType{entity.PeriodWeek, entity.PeriodMonth} {
			if err := aggregator.CalculateMetricsForUser(ctx, ownerID, pt); err != nil {
				return fmt.Errorf("%s %s aggregation: %w", aggregator.Family(), pt, err)
			}
		}
		return nil
	}, zap.String("owner_id", ownerID.String()))
}

// recordAudit appends an audit entry. Failures are logged and swallowed.
func recordAudit(
	ctx context.Context,
	audit repository.AuditRepository,
	clock clockwork.Clock,
	logger *zap.Logger,
	ownerID uuid.UUID,
	p provider.ProviderType,
	action model.AuditAction,
	details map[string]interface{},
) {
	if audit == nil {
		return
	}
	entry := &model.AuditLog{
		OwnerID:   ownerID,
		Provider:  p,
		Action:    action,
		CreatedAt: clock.Now(),
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := audit.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record audit log",
			zap.String("owner_id", ownerID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
