package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/health"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// HealthService scores an owner from the two latest buckets of each family.
type HealthService struct {
	metrics repository.MetricsRepository
	clock   clockwork.Clock
	logger  *zap.Logger
}

func NewHealthService(metrics repository.MetricsRepository, clock clockwork.Clock, logger *zap.Logger) *HealthService {
	return &HealthService{
		metrics: metrics,
		clock:   clock,
		logger:  logger,
	}
}

func (s *HealthService) GetHealthScore(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType) (*health.Result, error) {
	revenue, err := s.metrics.ListRevenueMetrics(ctx, ownerID, periodType, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue metrics: %w", err)
	}
	crm, err := s.metrics.ListCRMMetrics(ctx, ownerID, periodType, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load crm metrics: %w", err)
	}

	current := &health.MetricPeriod{
		Revenue: revenueSnapshot(revenue, 0),
		CRM:     crmSnapshot(crm, 0),
	}
	previous := &health.MetricPeriod{
		Revenue: revenueSnapshot(revenue, 1),
		CRM:     crmSnapshot(crm, 1),
	}

	result := health.ComputeHealthScore(current, previous)
	result.PeriodType = string(periodType)
	result.ComputedAt = s.clock.Now()

	s.logger.Debug("Computed health score",
		zap.String("owner_id", ownerID.String()),
		zap.String("period_type", string(periodType)),
		zap.String("status", string(result.Status)))
	return &result, nil
}

func revenueSnapshot(buckets []model.RevenueMetric, i int) *health.RevenueSnapshot {
	if i >= len(buckets) {
		return nil
	}
	b := buckets[i]
	return &health.RevenueSnapshot{
		NetRevenue:  b.NetRevenue,
		ChargeCount: b.ChargeCount,
		RefundCount: b.RefundCount,
	}
}

func crmSnapshot(buckets []model.CRMMetric, i int) *health.CRMSnapshot {
	if i >= len(buckets) {
		return nil
	}
	b := buckets[i]
	return &health.CRMSnapshot{
		NewLeads:           b.NewLeads,
		AppointmentsBooked: b.AppointmentsBooked,
		ShowRate:           b.ShowRate,
	}
}
