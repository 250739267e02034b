package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// GetEvent retrieves a webhook event by provider and event id
func (r *webhookRepository) GetEvent(ctx context.Context, p provider.ProviderType, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent

	err := r.db.WithContext(ctx).
		Where("provider = ? AND external_event_id = ?", p, eventID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get webhook event",
			zap.String("provider", string(p)),
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

// CreateEvent saves a new webhook event. A duplicate (provider, event id) is ignored
// and reported as not created.
func (r *webhookRepository) CreateEvent(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "external_event_id"}},
			DoNothing: true,
		}).
		Create(event)

	if result.Error != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("provider", string(event.Provider)),
			zap.String("event_id", event.ExternalEventID),
			zap.String("event_type", event.EventType),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to save webhook event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// MarkProcessed marks a webhook event as processed
func (r *webhookRepository) MarkProcessed(ctx context.Context, p provider.ProviderType, eventID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("provider = ? AND external_event_id = ?", p, eventID).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": at,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.String("provider", string(p)),
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	return nil
}

// ListUnprocessed returns quarantined and unrouted events, oldest first
func (r *webhookRepository) ListUnprocessed(ctx context.Context, p provider.ProviderType, limit int) ([]*model.WebhookEvent, error) {
	var events []*model.WebhookEvent

	query := r.db.WithContext(ctx).
		Where("provider = ? AND processed = ?", p, false).
		Order("received_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		r.logger.Error("Failed to get unprocessed webhook events",
			zap.String("provider", string(p)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get unprocessed webhook events: %w", err)
	}

	return events, nil
}
