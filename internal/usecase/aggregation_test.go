package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/usecase"
)

var (
	weekStart = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	weekEnd   = weekStart.AddDate(0, 0, 7)
)

func TestRevenueAggregation_Bucket(t *testing.T) {
	env := newTestEnv(t)
	svc := usecase.NewRevenueAggregationService(env.stripeMirror, env.metrics, env.clock, zap.NewNop())
	ownerID := uuid.New()
	ctx := context.Background()

	cus := &model.StripeCustomer{OwnerID: ownerID, ExternalID: "cus_1", CreatedAtProvider: weekStart.Add(time.Hour)}
	require.NoError(t, env.stripeMirror.UpsertCustomer(ctx, cus))
	require.NoError(t, env.stripeMirror.UpsertCustomer(ctx, &model.StripeCustomer{OwnerID: ownerID, ExternalID: "cus_old", CreatedAtProvider: weekStart.AddDate(0, 0, -30)}))
	customerID, err := env.stripeMirror.FindCustomerID(ctx, ownerID, "cus_1")
	require.NoError(t, err)

	for _, ch := range []*model.StripeCharge{
		{ExternalID: "ch_1", CustomerID: customerID, Amount: 10000, Status: "succeeded", CreatedAtProvider: weekStart},
		{ExternalID: "ch_2", CustomerID: customerID, Amount: 4000, RefundAmount: 4000, Refunded: true, Status: "succeeded", CreatedAtProvider: weekStart.Add(48 * time.Hour)},
		{ExternalID: "ch_3", Amount: 900, Status: "failed", CreatedAtProvider: weekStart.Add(72 * time.Hour)},
		{ExternalID: "ch_next", Amount: 100000, Status: "succeeded", CreatedAtProvider: weekEnd},
	} {
		ch.OwnerID = ownerID
		ch.Currency = "usd"
		require.NoError(t, env.stripeMirror.UpsertCharge(ctx, ch))
	}

	canceledInside := weekStart.Add(24 * time.Hour)
	canceledAfter := weekEnd.Add(24 * time.Hour)
	for _, sub := range []*model.StripeSubscription{
		{ExternalID: "sub_active", Status: model.SubscriptionStatusActive},
		{ExternalID: "sub_canceled_inside", Status: model.SubscriptionStatusCanceled, CanceledAt: &canceledInside},
		{ExternalID: "sub_canceled_after", Status: model.SubscriptionStatusCanceled, CanceledAt: &canceledAfter},
	} {
		sub.OwnerID = ownerID
		sub.CustomerID = *customerID
		sub.CreatedAtProvider = weekStart.AddDate(0, 0, -10)
		require.NoError(t, env.stripeMirror.UpsertSubscription(ctx, sub))
	}

	require.NoError(t, svc.CalculateMetrics(ctx, ownerID, weekStart, weekEnd, entity.PeriodWeek))

	buckets, err := env.metrics.ListRevenueMetrics(ctx, ownerID, entity.PeriodWeek, 5)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	b := buckets[0]
	assert.EqualValues(t, 14000, b.TotalRevenue)
	assert.EqualValues(t, 4000, b.RefundedRevenue)
	assert.EqualValues(t, 10000, b.NetRevenue)
	assert.EqualValues(t, 3, b.ChargeCount)
	assert.EqualValues(t, 1, b.RefundCount)
	assert.EqualValues(t, 1, b.CustomerCount)
	assert.EqualValues(t, 1, b.NewCustomerCount)
	assert.EqualValues(t, 2, b.ActiveSubscriptions)
	assert.True(t, weekEnd.Equal(b.PeriodEnd))
}

func TestCRMAggregation_Bucket(t *testing.T) {
	env := newTestEnv(t)
	svc := usecase.NewCRMAggregationService(env.crmMirror, env.metrics, env.clock, zap.NewNop())
	ownerID := uuid.New()
	ctx := context.Background()

	for i, created := range []time.Time{weekStart.AddDate(0, 0, -3), weekStart, weekStart.Add(time.Hour), weekEnd} {
		require.NoError(t, env.crmMirror.UpsertContact(ctx, &model.GHLContact{
			OwnerID:           ownerID,
			ExternalID:        "c-" + string(rune('a'+i)),
			CreatedAtProvider: created,
		}))
	}
	for i, status := range []string{"showed", "completed", "no-show", "confirmed"} {
		require.NoError(t, env.crmMirror.UpsertAppointment(ctx, &model.GHLAppointment{
			OwnerID:           ownerID,
			ExternalID:        "a-" + status,
			Status:            status,
			StartTime:         weekStart.Add(time.Duration(i+1) * time.Hour),
			CreatedAtProvider: weekStart,
		}))
	}
	closed := weekStart.Add(30 * time.Hour)
	for _, o := range []*model.GHLOpportunity{
		{ExternalID: "o-won", Status: model.OpportunityStatusWon, MonetaryValue: decimal.NewFromInt(1500), ClosedAt: &closed},
		{ExternalID: "o-lost", Status: model.OpportunityStatusLost, MonetaryValue: decimal.NewFromInt(300), ClosedAt: &closed},
		{ExternalID: "o-open", Status: model.OpportunityStatusOpen, MonetaryValue: decimal.RequireFromString("250.50")},
	} {
		o.OwnerID = ownerID
		o.CreatedAtProvider = weekStart
		require.NoError(t, env.crmMirror.UpsertOpportunity(ctx, o))
	}

	require.NoError(t, svc.CalculateMetrics(ctx, ownerID, weekStart, weekEnd, entity.PeriodWeek))

	buckets, err := env.metrics.ListCRMMetrics(ctx, ownerID, entity.PeriodWeek, 5)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	b := buckets[0]
	assert.EqualValues(t, 2, b.NewLeads)
	assert.EqualValues(t, 3, b.TotalLeads)
	assert.EqualValues(t, 4, b.AppointmentsBooked)
	assert.EqualValues(t, 2, b.AppointmentsShowed)
	assert.EqualValues(t, 1, b.AppointmentsNoShow)
	assert.InDelta(t, 0.5, b.ShowRate, 1e-9)
	assert.EqualValues(t, 1, b.OpportunitiesWon)
	assert.EqualValues(t, 1, b.OpportunitiesLost)
	assert.True(t, decimal.NewFromInt(1500).Equal(b.WonValue))
	assert.True(t, decimal.RequireFromString("250.50").Equal(b.PipelineValue))
}

func TestCRMAggregation_ShowRateWithoutBookings(t *testing.T) {
	env := newTestEnv(t)
	svc := usecase.NewCRMAggregationService(env.crmMirror, env.metrics, env.clock, zap.NewNop())
	ownerID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.CalculateMetrics(ctx, ownerID, weekStart, weekEnd, entity.PeriodWeek))

	buckets, err := env.metrics.ListCRMMetrics(ctx, ownerID, entity.PeriodWeek, 1)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Zero(t, buckets[0].AppointmentsBooked)
	assert.Zero(t, buckets[0].ShowRate)
}

func TestRevenueAggregation_CalculateForUserWalksFromEarliest(t *testing.T) {
	env := newTestEnv(t)
	svc := usecase.NewRevenueAggregationService(env.stripeMirror, env.metrics, env.clock, zap.NewNop())
	ownerID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.CalculateMetricsForUser(ctx, ownerID, entity.PeriodWeek))
	empty, err := env.metrics.ListRevenueMetrics(ctx, ownerID, entity.PeriodWeek, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, env.stripeMirror.UpsertCharge(ctx, &model.StripeCharge{
		OwnerID: ownerID, ExternalID: "ch_1", Amount: 500, Currency: "usd", Status: "succeeded",
		CreatedAtProvider: weekStart.AddDate(0, 0, -14).Add(time.Hour),
	}))

	require.NoError(t, svc.CalculateMetricsForUser(ctx, ownerID, entity.PeriodWeek))
	buckets, err := env.metrics.ListRevenueMetrics(ctx, ownerID, entity.PeriodWeek, 10)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.True(t, weekStart.Equal(buckets[0].PeriodStart))
	assert.EqualValues(t, 500, buckets[2].NetRevenue)
	assert.Zero(t, buckets[0].NetRevenue)
}

func TestRevenueAggregation_RecalculateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	svc := usecase.NewRevenueAggregationService(env.stripeMirror, env.metrics, env.clock, zap.NewNop())
	ownerID := uuid.New()
	ctx := context.Background()

	require.NoError(t, env.stripeMirror.UpsertCharge(ctx, &model.StripeCharge{
		OwnerID: ownerID, ExternalID: "ch_1", Amount: 700, Currency: "usd", Status: "succeeded",
		CreatedAtProvider: testNow.Add(-time.Hour),
	}))

	snapshot := func() map[entity.PeriodType][]model.RevenueMetric {
		out := make(map[entity.PeriodType][]model.RevenueMetric)
		for _, pt := range entity.PeriodTypes {
			rows, err := env.metrics.ListRevenueMetrics(ctx, ownerID, pt, 100)
			require.NoError(t, err)
			for i := range rows {
				rows[i].ID, rows[i].CreatedAt, rows[i].UpdatedAt = 0, time.Time{}, time.Time{}
			}
			out[pt] = rows
		}
		return out
	}

	require.NoError(t, svc.RecalculateForUser(ctx, ownerID))
	first := snapshot()
	require.NoError(t, svc.RecalculateForUser(ctx, ownerID))
	second := snapshot()

	assert.Equal(t, first, second)
	for _, pt := range entity.PeriodTypes {
		require.Len(t, first[pt], 1, string(pt))
		assert.EqualValues(t, 700, first[pt][0].NetRevenue)
	}
}
