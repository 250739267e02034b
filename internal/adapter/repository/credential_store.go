package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/crypto"
)

type credentialStore struct {
	integrations domainRepo.IntegrationRepository
	encryption   crypto.EncryptionService
	logger       *zap.Logger
}

// NewCredentialStore stores API keys sealed in the integrations table. Each
// ciphertext is bound to its owner and provider.
func NewCredentialStore(integrations domainRepo.IntegrationRepository, encryption crypto.EncryptionService, logger *zap.Logger) domainRepo.CredentialStore {
	return &credentialStore{
		integrations: integrations,
		encryption:   encryption,
		logger:       logger,
	}
}

func associatedData(ownerID uuid.UUID, p provider.ProviderType) []byte {
	return []byte(ownerID.String() + ":" + string(p))
}

func (s *credentialStore) Get(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) (*provider.Credential, error) {
	integration, err := s.integrations.Get(ctx, ownerID, p)
	if err != nil {
		return nil, err
	}
	if integration == nil || !integration.HasCredential() {
		return nil, nil
	}

	apiKey, err := s.encryption.Open(crypto.Sealed{
		Ciphertext: *integration.EncryptedAPIKey,
		Nonce:      *integration.APIKeyIV,
	}, associatedData(ownerID, p))
	if err != nil {
		s.logger.Error("Failed to decrypt integration credential",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider", string(p)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to decrypt credential: %w", err)
	}

	cred := &provider.Credential{APIKey: apiKey}
	if integration.AccountID != nil {
		cred.AccountID = *integration.AccountID
	}
	return cred, nil
}

func (s *credentialStore) Set(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, cred provider.Credential) error {
	sealed, err := s.encryption.Seal(cred.APIKey, associatedData(ownerID, p))
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	var accountID *string
	if cred.AccountID != "" {
		accountID = &cred.AccountID
	}
	return s.integrations.SaveCredential(ctx, ownerID, p, sealed.Ciphertext, sealed.Nonce, accountID)
}

func (s *credentialStore) Clear(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error {
	return s.integrations.ClearCredential(ctx, ownerID, p)
}
