package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

type mockIntegrations struct {
	mock.Mock
}

func (m *mockIntegrations) Get(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) (*model.Integration, error) {
	args := m.Called(ctx, ownerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Integration), args.Error(1)
}

func (m *mockIntegrations) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Integration, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]*model.Integration), args.Error(1)
}

func (m *mockIntegrations) FindByAccountID(ctx context.Context, p provider.ProviderType, accountID string) (*model.Integration, error) {
	args := m.Called(ctx, p, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Integration), args.Error(1)
}

func (m *mockIntegrations) ListOwnersByStatus(ctx context.Context, p provider.ProviderType, status model.IntegrationStatus) ([]uuid.UUID, error) {
	args := m.Called(ctx, p, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockIntegrations) SaveCredential(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, encryptedKey, iv string, accountID *string) error {
	return m.Called(ctx, ownerID, p, encryptedKey, iv, accountID).Error(0)
}

func (m *mockIntegrations) ClearCredential(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error {
	return m.Called(ctx, ownerID, p).Error(0)
}

func (m *mockIntegrations) MarkSyncSucceeded(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, at time.Time) error {
	return m.Called(ctx, ownerID, p, at).Error(0)
}

func (m *mockIntegrations) MarkSyncFailed(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, message string) error {
	return m.Called(ctx, ownerID, p, message).Error(0)
}

type stubRunner struct {
	p    provider.ProviderType
	fail map[uuid.UUID]bool

	mu      sync.Mutex
	owners  []uuid.UUID
	days    []int
	ctxErrs []error
}

func (r *stubRunner) Provider() provider.ProviderType { return r.p }

func (r *stubRunner) SyncUser(ctx context.Context, ownerID uuid.UUID, days *int) *entity.SyncResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, ownerID)
	if err := ctx.Err(); err != nil {
		r.ctxErrs = append(r.ctxErrs, err)
	}
	r.days = append(r.days, *days)
	result := &entity.SyncResult{Provider: r.p}
	if r.fail[ownerID] {
		result.Err = &entity.SyncError{Kind: entity.SyncErrorFailure, Message: "boom"}
	}
	return result
}

func TestSyncScheduler_RunOnce(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	repo := new(mockIntegrations)
	repo.On("ListOwnersByStatus", mock.Anything, provider.ProviderStripe, model.IntegrationStatusConnected).Return([]uuid.UUID{a, b}, nil)
	repo.On("ListOwnersByStatus", mock.Anything, provider.ProviderGoHighLevel, model.IntegrationStatusConnected).Return([]uuid.UUID{c}, nil)

	stripeRunner := &stubRunner{p: provider.ProviderStripe, fail: map[uuid.UUID]bool{b: true}}
	ghlRunner := &stubRunner{p: provider.ProviderGoHighLevel}

	s, err := NewSyncScheduler(repo, clockwork.NewFakeClock(), Config{Hour: 2, IncrementalDays: 7}, zap.NewNop(), stripeRunner, ghlRunner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	summaries, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Summary{
		{Provider: provider.ProviderStripe, Owners: 2, Succeeded: 1, Failed: 1},
		{Provider: provider.ProviderGoHighLevel, Owners: 1, Succeeded: 1},
	}, summaries)
	assert.Equal(t, []uuid.UUID{a, b}, stripeRunner.owners)
	assert.Equal(t, []int{7, 7}, stripeRunner.days)
	assert.Equal(t, []uuid.UUID{c}, ghlRunner.owners)
	repo.AssertExpectations(t)
}

func TestSyncScheduler_RunOnceListingFailure(t *testing.T) {
	repo := new(mockIntegrations)
	repo.On("ListOwnersByStatus", mock.Anything, provider.ProviderStripe, model.IntegrationStatusConnected).Return(nil, errors.New("db down"))

	runner := &stubRunner{p: provider.ProviderStripe}
	s, err := NewSyncScheduler(repo, clockwork.NewFakeClock(), Config{}, zap.NewNop(), runner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, runner.owners)
}

func TestSyncScheduler_RunOnceProvidersIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := new(mockIntegrations)
	repo.On("ListOwnersByStatus", mock.Anything, provider.ProviderStripe, model.IntegrationStatusConnected).Return([]uuid.UUID{a, b}, nil)
	repo.On("ListOwnersByStatus", mock.Anything, provider.ProviderGoHighLevel, model.IntegrationStatusConnected).Return(nil, errors.New("ghl listing failed"))

	stripeRunner := &stubRunner{p: provider.ProviderStripe}
	ghlRunner := &stubRunner{p: provider.ProviderGoHighLevel}

	s, err := NewSyncScheduler(repo, clockwork.NewFakeClock(), Config{Hour: 2, IncrementalDays: 7}, zap.NewNop(), stripeRunner, ghlRunner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	summaries, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghl listing failed")

	assert.Equal(t, Summary{Provider: provider.ProviderStripe, Owners: 2, Succeeded: 2}, summaries[0])
	assert.ElementsMatch(t, []uuid.UUID{a, b}, stripeRunner.owners)
	assert.Empty(t, stripeRunner.ctxErrs)
	assert.Empty(t, ghlRunner.owners)
}
