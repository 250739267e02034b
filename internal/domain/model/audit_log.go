package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// AuditAction names an integration lifecycle event.
type AuditAction string

const (
	AuditActionConnected     AuditAction = "CONNECTED"
	AuditActionDisconnected  AuditAction = "DISCONNECTED"
	AuditActionSyncStarted   AuditAction = "SYNC_STARTED"
	AuditActionSyncCompleted AuditAction = "SYNC_COMPLETED"
	AuditActionSyncFailed    AuditAction = "SYNC_FAILED"
)

// AuditLog is an append-only record of integration lifecycle events.
type AuditLog struct {
	ID        int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uuid.UUID             `gorm:"type:uuid;not null;index:idx_audit_logs_owner_created,priority:1" json:"owner_id"`
	Provider  provider.ProviderType `gorm:"size:32;not null" json:"provider"`
	Action    AuditAction           `gorm:"size:64;not null;index" json:"action"`
	Details   datatypes.JSON        `json:"details,omitempty"`
	CreatedAt time.Time             `gorm:"not null;index:idx_audit_logs_owner_created,priority:2" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
