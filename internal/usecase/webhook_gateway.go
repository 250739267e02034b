package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/metrics"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/worker"
	apperrors "github.com/SuarfelG/amber-business-health-monitor/pkg/errors"
)

// OwnerResolver maps a verified event to the owner it belongs to. It returns
// uuid.Nil when no owner matches.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, event *provider.WebhookEvent) (uuid.UUID, error)
}

// WebhookGatewayConfig configures one provider's gateway.
type WebhookGatewayConfig struct {
	Secret string
	// DispatchTypes are the event types that trigger an incremental sync.
	DispatchTypes []string
	// IncrementalDays is the lookback of triggered syncs.
	IncrementalDays int
}

// WebhookGateway verifies, deduplicates and routes one provider's webhooks.
type WebhookGateway struct {
	decoder  provider.WebhookDecoder
	resolver OwnerResolver
	webhooks repository.WebhookRepository
	syncer   SyncRunner
	tasks    worker.Submitter
	clock    clockwork.Clock
	secret   string
	dispatch map[string]struct{}
	days     int
	logger   *zap.Logger
}

func NewWebhookGateway(
	decoder provider.WebhookDecoder,
	resolver OwnerResolver,
	webhooks repository.WebhookRepository,
	syncer SyncRunner,
	tasks worker.Submitter,
	clock clockwork.Clock,
	cfg WebhookGatewayConfig,
	logger *zap.Logger,
) *WebhookGateway {
	dispatch := make(map[string]struct{}, len(cfg.DispatchTypes))
	for _, t := range cfg.DispatchTypes {
		dispatch[t] = struct{}{}
	}
	days := cfg.IncrementalDays
	if days <= 0 {
		days = 7
	}
	return &WebhookGateway{
		decoder:  decoder,
		resolver: resolver,
		webhooks: webhooks,
		syncer:   syncer,
		tasks:    tasks,
		clock:    clock,
		secret:   cfg.Secret,
		dispatch: dispatch,
		days:     days,
		logger:   logger.With(zap.String("provider", decoder.Provider().Slug())),
	}
}

func (g *WebhookGateway) Provider() provider.ProviderType {
	return g.decoder.Provider()
}

// HandleWebhook ingests one delivery. Replays and events for unknown owners succeed
// without further work; only verification and storage failures return errors.
func (g *WebhookGateway) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	p := g.decoder.Provider()

	if g.secret == "" || signature == "" {
		metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), metrics.OutcomeRejected).Inc()
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "missing signature or webhook secret", nil)
	}
	if !g.decoder.Verify(rawBody, signature, g.secret) {
		metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), metrics.OutcomeRejected).Inc()
		g.logger.Warn("Rejected webhook with invalid signature")
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid signature", nil)
	}

	event, err := g.decoder.Decode(rawBody)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), metrics.OutcomeRejected).Inc()
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "malformed webhook payload", err)
	}
	if event.ID == "" {
		event.ID = fmt.Sprintf("%s-%d", event.Type, g.clock.Now().UnixMilli())
	}
	log := g.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	existing, err := g.webhooks.GetEvent(ctx, p, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to look up webhook event")
	}
	if existing != nil {
		metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), metrics.OutcomeDuplicate).Inc()
		log.Info("Ignoring replayed webhook")
		return nil
	}

	ownerID, err := g.resolver.ResolveOwner(ctx, event)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve webhook owner")
	}

	created, err := g.webhooks.CreateEvent(ctx, &model.WebhookEvent{
		Provider:        p,
		ExternalEventID: event.ID,
		OwnerID:         ownerID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(event.Payload),
		ReceivedAt:      g.clock.Now(),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to store webhook event")
	}
	if !created {
		metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), metrics.OutcomeDuplicate).Inc()
		log.Info("Webhook claimed by a concurrent delivery")
		return nil
	}

	if ownerID == model.UnknownOwnerID {
		metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), metrics.OutcomeUnknownOwner).Inc()
		log.Warn("Quarantined webhook for unknown account", zap.String("account_id", event.AccountID))
		return nil
	}

	outcome := metrics.OutcomeIgnored
	if _, ok := g.dispatch[event.Type]; ok {
		g.triggerSync(ownerID, event)
		outcome = metrics.OutcomeDispatched
	}

	if err := g.webhooks.MarkProcessed(ctx, p, event.ID, g.clock.Now()); err != nil {
		return apperrors.Wrap(err, "failed to mark webhook processed")
	}

	metrics.WebhookEventsTotal.WithLabelValues(p.Slug(), outcome).Inc()
	log.Info("Webhook routed", zap.String("owner_id", ownerID.String()), zap.String("outcome", outcome))
	return nil
}

func (g *WebhookGateway) triggerSync(ownerID uuid.UUID, event *provider.WebhookEvent) {
	days := g.days
	syncer := g.syncer
	g.tasks.Submit("webhook.sync."+syncer.Provider().Slug(), func(ctx context.Context) error {
		if result := syncer.SyncUser(ctx, ownerID, &days); result.Err != nil {
			return result.Err
		}
		return nil
	}, zap.String("owner_id", ownerID.String()), zap.String("event_id", event.ID))
}

// ListQuarantined returns events that were stored but never routed, oldest first.
func (g *WebhookGateway) ListQuarantined(ctx context.Context, limit int) ([]*model.WebhookEvent, error) {
	return g.webhooks.ListUnprocessed(ctx, g.decoder.Provider(), limit)
}
