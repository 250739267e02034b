package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/usecase"
)

type recordingPublisher struct {
	channels []string
	messages []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) error {
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, message)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newStripeEngine(env *testEnv, clients *fakeClients, publisher *recordingPublisher) *usecase.SyncEngine {
	logger := zap.NewNop()
	syncer := usecase.NewStripeSyncer(clients, env.stripeMirror, logger)
	aggregator := usecase.NewRevenueAggregationService(env.stripeMirror, env.metrics, env.clock, logger)
	opts := usecase.SyncOptions{BackfillDays: 90, IncrementalDays: 7}
	if publisher != nil {
		opts.NotifyChannel = "sync.completed"
		return usecase.NewSyncEngine(syncer, env.integrations, env.credentials, env.audit, aggregator, env.tasks, publisher, env.clock, opts, logger)
	}
	return usecase.NewSyncEngine(syncer, env.integrations, env.credentials, env.audit, aggregator, env.tasks, nil, env.clock, opts, logger)
}

func connect(t *testing.T, env *testEnv, ownerID uuid.UUID, p provider.ProviderType, accountID string) {
	t.Helper()
	require.NoError(t, env.credentials.Set(context.Background(), ownerID, p, provider.Credential{
		APIKey:    "key-" + ownerID.String(),
		AccountID: accountID,
	}))
}

func auditActions(t *testing.T, env *testEnv, ownerID uuid.UUID) []model.AuditAction {
	t.Helper()
	entries, err := env.audit.ListByOwner(context.Background(), ownerID, 0)
	require.NoError(t, err)
	actions := make([]model.AuditAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func TestSyncEngine_NotConnected(t *testing.T) {
	env := newTestEnv(t)
	clients := newFakeClients()
	engine := newStripeEngine(env, clients, nil)
	ownerID := uuid.New()

	result := engine.SyncUser(context.Background(), ownerID, nil)

	require.NotNil(t, result.Err)
	assert.Equal(t, entity.SyncErrorNotConnected, result.Err.Kind)
	assert.Empty(t, result.Counts)
	assert.Zero(t, clients.stripe.customers.calls)
	assert.Empty(t, auditActions(t, env, ownerID))
	assert.Empty(t, env.tasks.Names())
}

func TestSyncEngine_LookbackWindow(t *testing.T) {
	env := newTestEnv(t)
	clients := newFakeClients()
	engine := newStripeEngine(env, clients, nil)
	ownerID := uuid.New()
	connect(t, env, ownerID, provider.ProviderStripe, "")
	ctx := context.Background()

	first := engine.SyncUser(ctx, ownerID, nil)
	require.Nil(t, first.Err)
	assert.Equal(t, 90, first.BackfillDays)
	assert.Equal(t, testNow.AddDate(0, 0, -90).Unix(), clients.stripe.customers.createdAfters[0])

	env.clock.Advance(24 * time.Hour)
	second := engine.SyncUser(ctx, ownerID, nil)
	require.Nil(t, second.Err)
	assert.Equal(t, 7, second.BackfillDays)
	assert.Equal(t, testNow.Add(24*time.Hour).AddDate(0, 0, -7).Unix(), clients.stripe.customers.createdAfters[1])

	days := 30
	third := engine.SyncUser(ctx, ownerID, &days)
	require.Nil(t, third.Err)
	assert.Equal(t, 30, third.BackfillDays)

	backfill := engine.BackfillUser(ctx, ownerID)
	require.Nil(t, backfill.Err)
	assert.Equal(t, 90, backfill.BackfillDays)
}

func TestSyncEngine_MirrorsStripeRecords(t *testing.T) {
	env := newTestEnv(t)
	clients := newFakeClients()
	publisher := &recordingPublisher{}
	engine := newStripeEngine(env, clients, publisher)
	ownerID := uuid.New()
	connect(t, env, ownerID, provider.ProviderStripe, "acct_1")
	ctx := context.Background()

	created := testNow.Add(-time.Hour)
	clients.stripe.customers.items = []provider.Customer{
		{ExternalID: "cus_1", Email: "a@example.com", CreatedAt: created},
		{ExternalID: "cus_2", CreatedAt: created},
	}
	clients.stripe.charges.items = []provider.Charge{
		{ExternalID: "ch_1", CustomerExternalID: "cus_1", Amount: 5000, Currency: "usd", Status: "succeeded", CreatedAt: created},
		{ExternalID: "ch_2", CustomerExternalID: "cus_unknown", Amount: 2500, AmountRefunded: 500, Currency: "usd", Status: "succeeded", CreatedAt: created},
	}
	clients.stripe.invoices.items = []provider.Invoice{
		{ExternalID: "in_1", CustomerExternalID: "cus_2", AmountDue: 1000, AmountPaid: 1000, Currency: "usd", Status: "paid", CreatedAt: created},
	}
	clients.stripe.subscriptions.items = []provider.Subscription{
		{ExternalID: "sub_1", CustomerExternalID: "cus_1", Status: "active", CreatedAt: created},
		{ExternalID: "sub_2", CustomerExternalID: "cus_missing", Status: "active", CreatedAt: created},
	}

	result := engine.SyncUser(ctx, ownerID, nil)

	require.Nil(t, result.Err)
	assert.Equal(t, []entity.EntityCount{
		{Entity: usecase.EntityCustomers, Count: 2},
		{Entity: usecase.EntityCharges, Count: 2},
		{Entity: usecase.EntityInvoices, Count: 1},
		{Entity: usecase.EntitySubscriptions, Count: 1},
	}, result.Counts)
	assert.Equal(t, "key-"+ownerID.String(), clients.creds[0].APIKey)

	integration, err := env.integrations.Get(ctx, ownerID, provider.ProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, model.IntegrationStatusConnected, integration.Status)
	require.NotNil(t, integration.LastSyncAt)
	assert.True(t, testNow.Equal(*integration.LastSyncAt))
	assert.Nil(t, integration.LastSyncError)

	var orphan model.StripeCharge
	require.NoError(t, env.db.Where("external_id = ?", "ch_2").First(&orphan).Error)
	assert.Nil(t, orphan.CustomerID)

	var subs int64
	require.NoError(t, env.db.Model(&model.StripeSubscription{}).Count(&subs).Error)
	assert.EqualValues(t, 1, subs)

	assert.Equal(t, []model.AuditAction{model.AuditActionSyncCompleted, model.AuditActionSyncStarted}, auditActions(t, env, ownerID))
	assert.Equal(t, []string{"aggregate." + usecase.FamilyRevenue}, env.tasks.Names())

	buckets, err := env.metrics.ListRevenueMetrics(ctx, ownerID, entity.PeriodWeek, 1)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.EqualValues(t, 7500, buckets[0].TotalRevenue)
	assert.EqualValues(t, 7000, buckets[0].NetRevenue)
	assert.EqualValues(t, 1, buckets[0].RefundCount)

	require.Len(t, publisher.messages, 1)
	note, ok := publisher.messages[0].(usecase.SyncNotification)
	require.True(t, ok)
	assert.True(t, note.Succeeded)
	assert.Equal(t, ownerID, note.OwnerID)
}

func TestSyncEngine_Paginates(t *testing.T) {
	env := newTestEnv(t)
	clients := newFakeClients()
	engine := newStripeEngine(env, clients, nil)
	ownerID := uuid.New()
	connect(t, env, ownerID, provider.ProviderStripe, "")

	for i := 0; i < 150; i++ {
		clients.stripe.customers.items = append(clients.stripe.customers.items, provider.Customer{
			ExternalID: fmt.Sprintf("cus_%03d", i),
			CreatedAt:  testNow.Add(-time.Duration(i) * time.Minute),
		})
	}

	result := engine.SyncUser(context.Background(), ownerID, nil)

	require.Nil(t, result.Err)
	assert.Equal(t, 150, result.Count(usecase.EntityCustomers))
	assert.Equal(t, 2, clients.stripe.customers.calls)
}

func TestSyncEngine_FailureKeepsPartialCounts(t *testing.T) {
	env := newTestEnv(t)
	clients := newFakeClients()
	publisher := &recordingPublisher{}
	engine := newStripeEngine(env, clients, publisher)
	ownerID := uuid.New()
	connect(t, env, ownerID, provider.ProviderStripe, "")
	ctx := context.Background()

	clients.stripe.customers.items = []provider.Customer{{ExternalID: "cus_1", CreatedAt: testNow}}
	for i := 0; i < 150; i++ {
		clients.stripe.charges.items = append(clients.stripe.charges.items, provider.Charge{
			ExternalID: fmt.Sprintf("ch_%03d", i),
			Amount:     100,
			Status:     "succeeded",
			CreatedAt:  testNow,
		})
	}
	clients.stripe.charges.failOnPage = 2
	clients.stripe.charges.err = errors.New("stripe unavailable")

	result := engine.SyncUser(ctx, ownerID, nil)

	require.NotNil(t, result.Err)
	assert.Equal(t, entity.SyncErrorFailure, result.Err.Kind)
	assert.Contains(t, result.Err.Message, "stripe unavailable")
	assert.Equal(t, 1, result.Count(usecase.EntityCustomers))
	assert.Equal(t, 100, result.Count(usecase.EntityCharges))
	assert.Zero(t, clients.stripe.invoices.calls)

	integration, err := env.integrations.Get(ctx, ownerID, provider.ProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, model.IntegrationStatusError, integration.Status)
	require.NotNil(t, integration.LastSyncError)
	assert.Contains(t, *integration.LastSyncError, "stripe unavailable")
	assert.Nil(t, integration.LastSyncAt)

	assert.Contains(t, auditActions(t, env, ownerID), model.AuditActionSyncFailed)
	assert.Empty(t, env.tasks.Names())

	require.Len(t, publisher.messages, 1)
	note := publisher.messages[0].(usecase.SyncNotification)
	assert.False(t, note.Succeeded)
	assert.NotEmpty(t, note.Error)
}

func TestSyncEngine_GHLLinksChildrenToContacts(t *testing.T) {
	env := newTestEnv(t)
	clients := newFakeClients()
	logger := zap.NewNop()
	syncer := usecase.NewGHLSyncer(clients, env.crmMirror, logger)
	aggregator := usecase.NewCRMAggregationService(env.crmMirror, env.metrics, env.clock, logger)
	engine := usecase.NewSyncEngine(syncer, env.integrations, env.credentials, env.audit, aggregator, env.tasks, nil, env.clock, usecase.SyncOptions{}, logger)
	ownerID := uuid.New()
	connect(t, env, ownerID, provider.ProviderGoHighLevel, "loc-1")
	ctx := context.Background()

	created := testNow.Add(-2 * time.Hour)
	clients.ghl.contacts.items = []provider.Contact{
		{ExternalID: "c-1", FirstName: "Ada", Tags: []string{"vip"}, CreatedAt: created},
	}
	clients.ghl.opportunities.items = []provider.Opportunity{
		{ExternalID: "o-1", ContactExternalID: "c-1", Status: "open", CreatedAt: created},
		{ExternalID: "o-2", ContactExternalID: "c-404", Status: "open", CreatedAt: created},
	}
	clients.ghl.appointments.items = []provider.Appointment{
		{ExternalID: "a-1", ContactExternalID: "c-1", Status: "showed", StartTime: testNow.Add(-time.Hour), CreatedAt: created},
	}

	result := engine.SyncUser(ctx, ownerID, nil)

	require.Nil(t, result.Err)
	assert.Equal(t, 1, result.Count(usecase.EntityContacts))
	assert.Equal(t, 2, result.Count(usecase.EntityOpportunities))
	assert.Equal(t, 1, result.Count(usecase.EntityAppointments))
	assert.Equal(t, "loc-1", clients.creds[0].AccountID)

	var linked, orphan model.GHLOpportunity
	require.NoError(t, env.db.Where("external_id = ?", "o-1").First(&linked).Error)
	require.NoError(t, env.db.Where("external_id = ?", "o-2").First(&orphan).Error)
	assert.NotNil(t, linked.ContactID)
	assert.Nil(t, orphan.ContactID)

	var contact model.GHLContact
	require.NoError(t, env.db.Where("external_id = ?", "c-1").First(&contact).Error)
	assert.JSONEq(t, `["vip"]`, string(contact.Tags))

	assert.Equal(t, []string{"aggregate." + usecase.FamilyCRM}, env.tasks.Names())
}
