package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// IntegrationRepository persists integration rows. Lookups return nil, nil when
// nothing matches.
type IntegrationRepository interface {
	Get(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) (*model.Integration, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Integration, error)
	FindByAccountID(ctx context.Context, p provider.ProviderType, accountID string) (*model.Integration, error)
	ListOwnersByStatus(ctx context.Context, p provider.ProviderType, status model.IntegrationStatus) ([]uuid.UUID, error)

	// SaveCredential creates or updates the integration as CONNECTED with the given
	// encrypted credential.
	SaveCredential(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, encryptedKey, iv string, accountID *string) error
	// ClearCredential removes the credential and marks the integration DISCONNECTED.
	ClearCredential(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error

	MarkSyncSucceeded(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, at time.Time) error
	MarkSyncFailed(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, message string) error
}

// CredentialStore hands out decrypted provider credentials.
type CredentialStore interface {
	// Get returns nil, nil when the owner has no stored credential.
	Get(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) (*provider.Credential, error)
	Set(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, cred provider.Credential) error
	Clear(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error
}
