package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/crypto"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestIntegrationRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntegrationRepository(db, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()
	account := "loc-1"

	none, err := repo.Get(ctx, owner, provider.ProviderGoHighLevel)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, repo.SaveCredential(ctx, owner, provider.ProviderGoHighLevel, "cipher", "nonce", &account))
	require.NoError(t, repo.MarkSyncFailed(ctx, owner, provider.ProviderGoHighLevel, "boom"))

	integration, err := repo.Get(ctx, owner, provider.ProviderGoHighLevel)
	require.NoError(t, err)
	require.NotNil(t, integration)
	assert.Equal(t, model.IntegrationStatusError, integration.Status)
	assert.True(t, integration.HasCredential())
	require.NotNil(t, integration.LastSyncError)
	assert.Equal(t, "boom", *integration.LastSyncError)

	require.NoError(t, repo.MarkSyncSucceeded(ctx, owner, provider.ProviderGoHighLevel, t0))
	integration, err = repo.Get(ctx, owner, provider.ProviderGoHighLevel)
	require.NoError(t, err)
	assert.Equal(t, model.IntegrationStatusConnected, integration.Status)
	assert.Nil(t, integration.LastSyncError)
	require.NotNil(t, integration.LastSyncAt)

	found, err := repo.FindByAccountID(ctx, provider.ProviderGoHighLevel, account)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, owner, found.OwnerID)

	owners, err := repo.ListOwnersByStatus(ctx, provider.ProviderGoHighLevel, model.IntegrationStatusConnected)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{owner}, owners)

	require.NoError(t, repo.ClearCredential(ctx, owner, provider.ProviderGoHighLevel))
	integration, err = repo.Get(ctx, owner, provider.ProviderGoHighLevel)
	require.NoError(t, err)
	assert.Equal(t, model.IntegrationStatusDisconnected, integration.Status)
	assert.False(t, integration.HasCredential())

	var count int64
	require.NoError(t, db.Model(&model.Integration{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	enc, err := crypto.NewAESEncryptionService(testKey)
	require.NoError(t, err)

	integrations := NewIntegrationRepository(db, zap.NewNop())
	store := NewCredentialStore(integrations, enc, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	cred, err := store.Get(ctx, owner, provider.ProviderStripe)
	require.NoError(t, err)
	assert.Nil(t, cred)

	require.NoError(t, store.Set(ctx, owner, provider.ProviderStripe, provider.Credential{APIKey: "sk_live_1", AccountID: "acct_1"}))

	stored, err := integrations.Get(ctx, owner, provider.ProviderStripe)
	require.NoError(t, err)
	require.NotNil(t, stored.EncryptedAPIKey)
	assert.NotContains(t, *stored.EncryptedAPIKey, "sk_live_1")

	cred, err = store.Get(ctx, owner, provider.ProviderStripe)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "sk_live_1", cred.APIKey)
	assert.Equal(t, "acct_1", cred.AccountID)

	// A ciphertext copied to another owner must not open.
	other := uuid.New()
	require.NoError(t, integrations.SaveCredential(ctx, other, provider.ProviderStripe, *stored.EncryptedAPIKey, *stored.APIKeyIV, nil))
	_, err = store.Get(ctx, other, provider.ProviderStripe)
	assert.Error(t, err)

	require.NoError(t, store.Clear(ctx, owner, provider.ProviderStripe))
	cred, err = store.Get(ctx, owner, provider.ProviderStripe)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestAuditRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, repo.Record(ctx, &model.AuditLog{OwnerID: owner, Provider: provider.ProviderStripe, Action: model.AuditActionConnected, CreatedAt: t0}))
	require.NoError(t, repo.Record(ctx, &model.AuditLog{OwnerID: owner, Provider: provider.ProviderStripe, Action: model.AuditActionSyncCompleted, CreatedAt: t0.Add(time.Second)}))
	require.NoError(t, repo.Record(ctx, &model.AuditLog{OwnerID: uuid.New(), Provider: provider.ProviderStripe, Action: model.AuditActionConnected, CreatedAt: t0}))

	entries, err := repo.ListByOwner(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AuditActionSyncCompleted, entries[0].Action)
}
