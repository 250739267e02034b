package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/worker"
)

const (
	DefaultMetricsLimit = 12
	MaxMetricsLimit     = 366
)

// MetricsService reads aggregate buckets and schedules rebuilds.
type MetricsService struct {
	metrics     repository.MetricsRepository
	calculators []MetricsCalculator
	tasks       worker.Submitter
	logger      *zap.Logger
}

func NewMetricsService(metrics repository.MetricsRepository, tasks worker.Submitter, logger *zap.Logger, calculators ...MetricsCalculator) *MetricsService {
	return &MetricsService{
		metrics:     metrics,
		calculators: calculators,
		tasks:       tasks,
		logger:      logger,
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultMetricsLimit
	case limit > MaxMetricsLimit:
		return MaxMetricsLimit
	default:
		return limit
	}
}

// RevenueMetrics returns the latest revenue buckets, newest first.
func (s *MetricsService) RevenueMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.RevenueMetric, error) {
	return s.metrics.ListRevenueMetrics(ctx, ownerID, periodType, clampLimit(limit))
}

// CRMMetrics returns the latest CRM buckets, newest first.
func (s *MetricsService) CRMMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.CRMMetric, error) {
	return s.metrics.ListCRMMetrics(ctx, ownerID, periodType, clampLimit(limit))
}

// Recalculate rebuilds every family in the background.
func (s *MetricsService) Recalculate(ownerID uuid.UUID) {
	for _, calc := range s.calculators {
		calc := calc
		s.tasks.Submit("recalculate."+calc.Family(), func(ctx context.Context) error {
			return calc.RecalculateForUser(ctx, ownerID)
		}, zap.String("owner_id", ownerID.String()))
	}
}

// RecalculateNow rebuilds every family and returns the first error.
func (s *MetricsService) RecalculateNow(ctx context.Context, ownerID uuid.UUID) error {
	for _, calc := range s.calculators {
		if err := calc.RecalculateForUser(ctx, ownerID); err != nil {
			return err
		}
		s.logger.Info("Recalculated metrics",
			zap.String("owner_id", ownerID.String()),
			zap.String("family", calc.Family()))
	}
	return nil
}
