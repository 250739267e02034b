package repository

import (
	"context"
	"time"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// WebhookRepository stores webhook deliveries, one row per (provider, event id).
type WebhookRepository interface {
	// GetEvent returns nil, nil when the event has not been seen.
	GetEvent(ctx context.Context, p provider.ProviderType, eventID string) (*model.WebhookEvent, error)
	// CreateEvent inserts the event unless it already exists and reports whether a
	// row was inserted.
	CreateEvent(ctx context.Context, event *model.WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, p provider.ProviderType, eventID string, at time.Time) error
	ListUnprocessed(ctx context.Context, p provider.ProviderType, limit int) ([]*model.WebhookEvent, error)
}
