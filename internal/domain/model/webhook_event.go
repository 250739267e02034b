package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// UnknownOwnerID marks webhook events whose provider account maps to no integration.
var UnknownOwnerID = uuid.Nil

// WebhookEvent records one webhook delivery. (provider, external_event_id) is unique
// and is the only guard against replays.
type WebhookEvent struct {
	ID              int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider        provider.ProviderType `gorm:"size:32;not null;uniqueIndex:ux_webhook_events_provider_event,priority:1" json:"provider"`
	ExternalEventID string                `gorm:"size:255;not null;uniqueIndex:ux_webhook_events_provider_event,priority:2" json:"external_event_id"`
	OwnerID         uuid.UUID             `gorm:"type:uuid;not null;index" json:"owner_id"`
	EventType       string                `gorm:"size:100;not null;index" json:"event_type"`
	Payload         datatypes.JSON        `gorm:"not null" json:"payload"`
	Processed       bool                  `gorm:"not null;default:false;index" json:"processed"`
	ProcessedAt     *time.Time            `json:"processed_at,omitempty"`
	ReceivedAt      time.Time             `gorm:"not null" json:"received_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// OwnerKnown reports whether the event was attributed to an owner.
func (e *WebhookEvent) OwnerKnown() bool {
	return e.OwnerID != UnknownOwnerID
}
