package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	domainErrors "github.com/SuarfelG/amber-business-health-monitor/internal/domain/errors"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/worker"
	apperrors "github.com/SuarfelG/amber-business-health-monitor/pkg/errors"
)

// IntegrationStatus is the owner-facing view of one provider connection.
type IntegrationStatus struct {
	Provider      provider.ProviderType   `json:"provider"`
	Status        model.IntegrationStatus `json:"status"`
	AccountID     *string                 `json:"account_id"`
	LastSyncAt    *time.Time              `json:"last_sync_at"`
	LastSyncError *string                 `json:"last_sync_error"`
}

// IntegrationService manages connections and manual sync triggers.
type IntegrationService struct {
	integrations repository.IntegrationRepository
	credentials  repository.CredentialStore
	audit        repository.AuditRepository
	clients      provider.ClientFactory
	runners      map[provider.ProviderType]SyncRunner
	tasks        worker.Submitter
	clock        clockwork.Clock
	logger       *zap.Logger
}

func NewIntegrationService(
	integrations repository.IntegrationRepository,
	credentials repository.CredentialStore,
	audit repository.AuditRepository,
	clients provider.ClientFactory,
	tasks worker.Submitter,
	clock clockwork.Clock,
	logger *zap.Logger,
	runners ...SyncRunner,
) *IntegrationService {
	byProvider := make(map[provider.ProviderType]SyncRunner, len(runners))
	for _, r := range runners {
		byProvider[r.Provider()] = r
	}
	return &IntegrationService{
		integrations: integrations,
		credentials:  credentials,
		audit:        audit,
		clients:      clients,
		runners:      byProvider,
		tasks:        tasks,
		clock:        clock,
		logger:       logger,
	}
}

// List returns one entry per supported provider. Providers never connected are
// reported as DISCONNECTED.
func (s *IntegrationService) List(ctx context.Context, ownerID uuid.UUID) ([]IntegrationStatus, error) {
	rows, err := s.integrations.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list integrations")
	}
	byProvider := make(map[provider.ProviderType]*model.Integration, len(rows))
	for _, row := range rows {
		byProvider[row.Provider] = row
	}

	out := make([]IntegrationStatus, 0, len(provider.ProviderTypes))
	for _, p := range provider.ProviderTypes {
		view := IntegrationStatus{Provider: p, Status: model.IntegrationStatusDisconnected}
		if row, ok := byProvider[p]; ok {
			view.Status = row.Status
			view.AccountID = row.AccountID
			view.LastSyncAt = row.LastSyncAt
			view.LastSyncError = row.LastSyncError
		}
		out = append(out, view)
	}
	return out, nil
}

// Connect validates apiKey against the provider, stores it and starts a backfill.
// GoHighLevel requires the location id as accountID.
func (s *IntegrationService) Connect(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, apiKey, accountID string) error {
	apiKey = strings.TrimSpace(apiKey)
	accountID = strings.TrimSpace(accountID)
	if apiKey == "" {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "api key is required", nil)
	}
	if p == provider.ProviderGoHighLevel && accountID == "" {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "location id is required", nil)
	}

	cred := provider.Credential{APIKey: apiKey, AccountID: accountID}
	if err := s.validate(ctx, p, cred); err != nil {
		return err
	}

	if err := s.credentials.Set(ctx, ownerID, p, cred); err != nil {
		return apperrors.Wrap(err, "failed to store credential")
	}

	recordAudit(ctx, s.audit, s.clock, s.logger, ownerID, p, model.AuditActionConnected, map[string]interface{}{
		"account_id": accountID,
	})
	s.logger.Info("Integration connected",
		zap.String("owner_id", ownerID.String()),
		zap.String("provider", p.Slug()))

	return s.TriggerSync(ctx, ownerID, p, true)
}

// validate lists a single record to prove the credential works.
func (s *IntegrationService) validate(ctx context.Context, p provider.ProviderType, cred provider.Credential) error {
	var err error
	switch p {
	case provider.ProviderStripe:
		_, err = s.clients.Stripe(cred).ListCustomers(ctx, "", 0, 1)
	case provider.ProviderGoHighLevel:
		_, err = s.clients.GHL(cred).ListContacts(ctx, "", 0, 1)
	default:
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, domainErrors.ErrUnsupportedProvider.Error(), domainErrors.ErrUnsupportedProvider)
	}
	if err == nil {
		return nil
	}

	var perr *provider.ProviderError
	if errors.As(err, &perr) && (perr.StatusCode == http.StatusUnauthorized || perr.StatusCode == http.StatusForbidden) {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, domainErrors.ErrInvalidCredential.Error(), domainErrors.ErrInvalidCredential)
	}
	return apperrors.Wrap(err, p.Slug()+" validation failed")
}

// Disconnect clears the credential and marks the integration DISCONNECTED.
func (s *IntegrationService) Disconnect(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error {
	integration, err := s.integrations.Get(ctx, ownerID, p)
	if err != nil {
		return apperrors.Wrap(err, "failed to load integration")
	}
	if integration == nil {
		return apperrors.NewAppError(apperrors.ErrNotFound, domainErrors.ErrIntegrationNotFound.Error(), domainErrors.ErrIntegrationNotFound)
	}

	if err := s.credentials.Clear(ctx, ownerID, p); err != nil {
		return apperrors.Wrap(err, "failed to clear credential")
	}

	recordAudit(ctx, s.audit, s.clock, s.logger, ownerID, p, model.AuditActionDisconnected, nil)
	s.logger.Info("Integration disconnected",
		zap.String("owner_id", ownerID.String()),
		zap.String("provider", p.Slug()))
	return nil
}

// TriggerSync starts a background sync. backfill selects the full backfill window;
// otherwise the engine picks the window.
func (s *IntegrationService) TriggerSync(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, backfill bool) error {
	runner, ok := s.runners[p]
	if !ok {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, domainErrors.ErrUnsupportedProvider.Error(), domainErrors.ErrUnsupportedProvider)
	}

	integration, err := s.integrations.Get(ctx, ownerID, p)
	if err != nil {
		return apperrors.Wrap(err, "failed to load integration")
	}
	if integration == nil || !integration.HasCredential() {
		return apperrors.NewAppError(apperrors.ErrFailedPrecondition, domainErrors.ErrNotConnected.Error(), domainErrors.ErrNotConnected)
	}

	name := "manual.sync." + p.Slug()
	if backfill {
		name = "manual.backfill." + p.Slug()
	}
	s.tasks.Submit(name, func(ctx context.Context) error {
		var result *entity.SyncResult
		if backfill {
			result = runner.BackfillUser(ctx, ownerID)
		} else {
			result = runner.SyncUser(ctx, ownerID, nil)
		}
		if result.Err != nil {
			return result.Err
		}
		return nil
	}, zap.String("owner_id", ownerID.String()))
	return nil
}

// AuditLog returns the owner's most recent audit entries.
func (s *IntegrationService) AuditLog(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.audit.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	return entries, nil
}
