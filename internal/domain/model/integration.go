package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// IntegrationStatus is the connection state of an integration.
type IntegrationStatus string

const (
	IntegrationStatusDisconnected IntegrationStatus = "DISCONNECTED"
	IntegrationStatusConnected    IntegrationStatus = "CONNECTED"
	IntegrationStatusError        IntegrationStatus = "ERROR"
)

// Integration is one owner's connection to one provider.
type Integration struct {
	ID       int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID  uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:ux_integrations_owner_provider,priority:1" json:"owner_id"`
	Provider provider.ProviderType `gorm:"size:32;not null;uniqueIndex:ux_integrations_owner_provider,priority:2;index:idx_integrations_provider_account,priority:1" json:"provider"`

	EncryptedAPIKey *string `gorm:"type:text" json:"-"`
	APIKeyIV        *string `gorm:"size:64" json:"-"`
	AccountID       *string `gorm:"size:255;index:idx_integrations_provider_account,priority:2" json:"account_id,omitempty"`

	Status        IntegrationStatus `gorm:"size:32;not null;default:'DISCONNECTED';index" json:"status"`
	LastSyncAt    *time.Time        `json:"last_sync_at,omitempty"`
	LastSyncError *string           `gorm:"type:text" json:"last_sync_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Integration) TableName() string {
	return "integrations"
}

// HasCredential reports whether an encrypted API key is stored.
func (i *Integration) HasCredential() bool {
	return i.EncryptedAPIKey != nil && *i.EncryptedAPIKey != "" && i.APIKeyIV != nil
}
