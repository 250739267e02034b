package usecase_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SuarfelG/amber-business-health-monitor/internal/adapter/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/crypto"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/worker"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// Monday 2024-03-04 10:00 UTC.
var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db           *gorm.DB
	clock        *clockwork.FakeClock
	tasks        *syncTasks
	integrations domainRepo.IntegrationRepository
	credentials  domainRepo.CredentialStore
	stripeMirror domainRepo.StripeMirrorRepository
	crmMirror    domainRepo.CRMMirrorRepository
	webhooks     domainRepo.WebhookRepository
	metrics      domainRepo.MetricsRepository
	audit        domainRepo.AuditRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Integration{},
		&model.StripeCustomer{},
		&model.StripeCharge{},
		&model.StripeInvoice{},
		&model.StripeSubscription{},
		&model.GHLContact{},
		&model.GHLOpportunity{},
		&model.GHLAppointment{},
		&model.WebhookEvent{},
		&model.RevenueMetric{},
		&model.CRMMetric{},
		&model.AuditLog{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	enc, err := crypto.NewAESEncryptionService(testKey)
	require.NoError(t, err)

	logger := zap.NewNop()
	integrations := repository.NewIntegrationRepository(db, logger)
	return &testEnv{
		db:           db,
		clock:        clockwork.NewFakeClockAt(testNow),
		tasks:        &syncTasks{},
		integrations: integrations,
		credentials:  repository.NewCredentialStore(integrations, enc, logger),
		stripeMirror: repository.NewStripeMirrorRepository(db, logger),
		crmMirror:    repository.NewCRMMirrorRepository(db, logger),
		webhooks:     repository.NewWebhookRepository(db, logger),
		metrics:      repository.NewMetricsRepository(db, logger),
		audit:        repository.NewAuditRepository(db, logger),
	}
}

// syncTasks runs submitted tasks inline and records their names and errors.
type syncTasks struct {
	mu     sync.Mutex
	names  []string
	errors []error
}

var _ worker.Submitter = (*syncTasks)(nil)

func (s *syncTasks) Submit(name string, task worker.Task, _ ...zap.Field) {
	err := task(context.Background())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	if err != nil {
		s.errors = append(s.errors, err)
	}
}

func (s *syncTasks) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// queuedTasks records submissions without running them.
type queuedTasks struct {
	names []string
}

func (q *queuedTasks) Submit(name string, _ worker.Task, _ ...zap.Field) {
	q.names = append(q.names, name)
}

// listFake serves items in pages of pageSize using an offset cursor. failOnPage
// (1-based) makes that page return err instead.
type listFake[T any] struct {
	items      []T
	failOnPage int
	err        error

	calls         int
	createdAfters []int64
}

func (f *listFake[T]) list(_ context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[T], error) {
	f.calls++
	f.createdAfters = append(f.createdAfters, createdAfter)
	if f.failOnPage > 0 && f.calls == f.failOnPage {
		return nil, f.err
	}
	if f.err != nil && f.failOnPage == 0 {
		return nil, f.err
	}

	offset := 0
	if cursor != "" {
		var err error
		if offset, err = strconv.Atoi(cursor); err != nil {
			return nil, err
		}
	}
	end := offset + pageSize
	if end > len(f.items) {
		end = len(f.items)
	}
	page := &provider.Page[T]{Items: f.items[offset:end]}
	if end < len(f.items) {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

type fakeStripe struct {
	customers     listFake[provider.Customer]
	charges       listFake[provider.Charge]
	invoices      listFake[provider.Invoice]
	subscriptions listFake[provider.Subscription]
}

func (f *fakeStripe) ListCustomers(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Customer], error) {
	return f.customers.list(ctx, cursor, createdAfter, pageSize)
}

func (f *fakeStripe) ListCharges(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Charge], error) {
	return f.charges.list(ctx, cursor, createdAfter, pageSize)
}

func (f *fakeStripe) ListInvoices(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Invoice], error) {
	return f.invoices.list(ctx, cursor, createdAfter, pageSize)
}

func (f *fakeStripe) ListSubscriptions(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Subscription], error) {
	return f.subscriptions.list(ctx, cursor, createdAfter, pageSize)
}

type fakeGHL struct {
	contacts      listFake[provider.Contact]
	opportunities listFake[provider.Opportunity]
	appointments  listFake[provider.Appointment]
}

func (f *fakeGHL) ListContacts(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Contact], error) {
	return f.contacts.list(ctx, cursor, createdAfter, pageSize)
}

func (f *fakeGHL) ListOpportunities(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Opportunity], error) {
	return f.opportunities.list(ctx, cursor, createdAfter, pageSize)
}

func (f *fakeGHL) ListAppointments(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Appointment], error) {
	return f.appointments.list(ctx, cursor, createdAfter, pageSize)
}

type fakeClients struct {
	stripe *fakeStripe
	ghl    *fakeGHL
	creds  []provider.Credential
}

func newFakeClients() *fakeClients {
	return &fakeClients{stripe: &fakeStripe{}, ghl: &fakeGHL{}}
}

func (f *fakeClients) Stripe(cred provider.Credential) provider.StripeAPI {
	f.creds = append(f.creds, cred)
	return f.stripe
}

func (f *fakeClients) GHL(cred provider.Credential) provider.GHLAPI {
	f.creds = append(f.creds, cred)
	return f.ghl
}
