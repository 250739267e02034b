package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// RevenueAggregationService builds revenue buckets from the Stripe mirror.
type RevenueAggregationService struct {
	periodWalker
	mirror  repository.StripeMirrorRepository
	metrics repository.MetricsRepository
}

func NewRevenueAggregationService(
	mirror repository.StripeMirrorRepository,
	metrics repository.MetricsRepository,
	clock clockwork.Clock,
	logger *zap.Logger,
) *RevenueAggregationService {
	s := &RevenueAggregationService{
		mirror:  mirror,
		metrics: metrics,
	}
	s.periodWalker = periodWalker{
		family: FamilyRevenue,
		source: s,
		clock:  clock,
		logger: logger.With(zap.String("family", FamilyRevenue)),
	}
	return s
}

func (s *RevenueAggregationService) earliest(ctx context.Context, ownerID uuid.UUID) (*time.Time, error) {
	return s.mirror.EarliestActivity(ctx, ownerID)
}

func (s *RevenueAggregationService) clear(ctx context.Context, ownerID uuid.UUID) error {
	return s.metrics.DeleteRevenueMetrics(ctx, ownerID)
}

// compute sums succeeded charges, refunds of any charge, distinct customers with
// charges, new customers and subscriptions still active at the window's end.
func (s *RevenueAggregationService) compute(ctx context.Context, ownerID uuid.UUID, start, end time.Time, periodType entity.PeriodType) error {
	charges, err := s.mirror.ListChargesCreatedBetween(ctx, ownerID, start, end)
	if err != nil {
		return err
	}

	bucket := &model.RevenueMetric{
		OwnerID:     ownerID,
		PeriodType:  periodType,
		PeriodStart: start,
		PeriodEnd:   end,
		ChargeCount: int64(len(charges)),
	}

	customers := make(map[int64]struct{})
	for _, ch := range charges {
		if ch.Status == model.ChargeStatusSucceeded {
			bucket.TotalRevenue += ch.Amount
		}
		bucket.RefundedRevenue += ch.RefundAmount
		if ch.RefundAmount > 0 {
			bucket.RefundCount++
		}
		if ch.CustomerID != nil {
			customers[*ch.CustomerID] = struct{}{}
		}
	}
	bucket.NetRevenue = bucket.TotalRevenue - bucket.RefundedRevenue
	bucket.CustomerCount = int64(len(customers))

	if bucket.NewCustomerCount, err = s.mirror.CountCustomersCreatedBetween(ctx, ownerID, start, end); err != nil {
		return err
	}
	if bucket.ActiveSubscriptions, err = s.mirror.CountActiveSubscriptionsAt(ctx, ownerID, end); err != nil {
		return err
	}

	return s.metrics.UpsertRevenueMetric(ctx, bucket)
}
