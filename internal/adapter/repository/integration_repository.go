package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

type integrationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewIntegrationRepository creates a new integration repository
func NewIntegrationRepository(db *gorm.DB, logger *zap.Logger) domainRepo.IntegrationRepository {
	return &integrationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *integrationRepository) Get(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) (*model.Integration, error) {
	var integration model.Integration
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider = ?", ownerID, p).
		First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get integration",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider", string(p)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return &integration, nil
}

func (r *integrationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Integration, error) {
	var integrations []*model.Integration
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("provider ASC").
		Find(&integrations).Error
	if err != nil {
		r.logger.Error("Failed to list integrations",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return integrations, nil
}

// FindByAccountID returns the oldest integration for the account when several owners
// connected the same one.
func (r *integrationRepository) FindByAccountID(ctx context.Context, p provider.ProviderType, accountID string) (*model.Integration, error) {
	if accountID == "" {
		return nil, nil
	}

	var integration model.Integration
	err := r.db.WithContext(ctx).
		Where("provider = ? AND account_id = ?", p, accountID).
		Order("id ASC").
		First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find integration by account",
			zap.String("provider", string(p)),
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find integration by account: %w", err)
	}
	return &integration, nil
}

func (r *integrationRepository) ListOwnersByStatus(ctx context.Context, p provider.ProviderType, status model.IntegrationStatus) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Integration{}).
		Where("provider = ? AND status = ?", p, status).
		Order("id ASC").
		Pluck("owner_id", &owners).Error
	if err != nil {
		r.logger.Error("Failed to list integration owners",
			zap.String("provider", string(p)),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list integration owners: %w", err)
	}
	return owners, nil
}

func (r *integrationRepository) SaveCredential(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, encryptedKey, iv string, accountID *string) error {
	integration := &model.Integration{
		OwnerID:         ownerID,
		Provider:        p,
		EncryptedAPIKey: &encryptedKey,
		APIKeyIV:        &iv,
		AccountID:       accountID,
		Status:          model.IntegrationStatusConnected,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "provider"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"encrypted_api_key": encryptedKey,
				"api_key_iv":        iv,
				"account_id":        accountID,
				"status":            model.IntegrationStatusConnected,
				"last_sync_error":   nil,
				"updated_at":        time.Now().UTC(),
			}),
		}).
		Create(integration).Error
	if err != nil {
		r.logger.Error("Failed to save integration credential",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider", string(p)),
			zap.Error(err))
		return fmt.Errorf("failed to save integration credential: %w", err)
	}
	return nil
}

func (r *integrationRepository) ClearCredential(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error {
	result := r.db.WithContext(ctx).
		Model(&model.Integration{}).
		Where("owner_id = ? AND provider = ?", ownerID, p).
		Updates(map[string]interface{}{
			"encrypted_api_key": nil,
			"api_key_iv":        nil,
			"account_id":        nil,
			"last_sync_error":   nil,
			"status":            model.IntegrationStatusDisconnected,
		})
	if result.Error != nil {
		r.logger.Error("Failed to clear integration credential",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider", string(p)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to clear integration credential: %w", result.Error)
	}
	return nil
}

// MarkSyncSucceeded clears the last error and moves ERROR back to CONNECTED.
func (r *integrationRepository) MarkSyncSucceeded(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Integration{}).
		Where("owner_id = ? AND provider = ?", ownerID, p).
		Updates(map[string]interface{}{
			"status":          model.IntegrationStatusConnected,
			"last_sync_at":    at,
			"last_sync_error": nil,
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark sync succeeded",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider", string(p)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark sync succeeded: %w", result.Error)
	}
	return nil
}

func (r *integrationRepository) MarkSyncFailed(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, message string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Integration{}).
		Where("owner_id = ? AND provider = ?", ownerID, p).
		Updates(map[string]interface{}{
			"status":          model.IntegrationStatusError,
			"last_sync_error": message,
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark sync failed",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider", string(p)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark sync failed: %w", result.Error)
	}
	return nil
}
