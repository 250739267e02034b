package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/metrics"
)

// Metric families.
const (
	FamilyRevenue = "revenue"
	FamilyCRM     = "crm"
)

// MetricsCalculator builds the aggregate buckets of one metric family.
type MetricsCalculator interface {
	Family() string
	// CalculateMetricsForUser upserts every bucket from the owner's earliest mirrored
	// record up to now.
	CalculateMetricsForUser(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType) error
	// CalculateMetrics upserts the single bucket [start, end).
	CalculateMetrics(ctx context.Context, ownerID uuid.UUID, start, end time.Time, periodType entity.PeriodType) error
	// RecalculateForUser deletes the family's buckets and rebuilds every period type.
	RecalculateForUser(ctx context.Context, ownerID uuid.UUID) error
}

// bucketSource is the family-specific half of a walk.
type bucketSource interface {
	earliest(ctx context.Context, ownerID uuid.UUID) (*time.Time, error)
	compute(ctx context.Context, ownerID uuid.UUID, start, end time.Time, periodType entity.PeriodType) error
	clear(ctx context.Context, ownerID uuid.UUID) error
}

// periodWalker implements the walk shared by both families.
type periodWalker struct {
	family string
	source bucketSource
	clock  clockwork.Clock
	logger *zap.Logger
}

func (w *periodWalker) Family() string {
	return w.family
}

func (w *periodWalker) CalculateMetricsForUser(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType) (err error) {
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		metrics.AggregationRunsTotal.WithLabelValues(w.family, string(periodType), outcome).Inc()
	}()

	earliest, err := w.source.earliest(ctx, ownerID)
	if err != nil {
		return err
	}
	if earliest == nil {
		w.logger.Debug("No mirrored data to aggregate",
			zap.String("owner_id", ownerID.String()),
			zap.String("period_type", string(periodType)))
		return nil
	}

	periods := entity.PeriodsBetween(*earliest, w.clock.Now(), periodType)
	for _, p := range periods {
		if err := w.source.compute(ctx, ownerID, p.Start, p.End, periodType); err != nil {
			return fmt.Errorf("failed to compute %s bucket %s: %w", w.family, p.Start.Format(time.DateOnly), err)
		}
	}

	w.logger.Info("Aggregated metrics",
		zap.String("owner_id", ownerID.String()),
		zap.String("period_type", string(periodType)),
		zap.Int("buckets", len(periods)))
	return nil
}

func (w *periodWalker) CalculateMetrics(ctx context.Context, ownerID uuid.UUID, start, end time.Time, periodType entity.PeriodType) error {
	return w.source.compute(ctx, ownerID, start.UTC(), end.UTC(), periodType)
}

func (w *periodWalker) RecalculateForUser(ctx context.Context, ownerID uuid.UUID) error {
	if err := w.source.clear(ctx, ownerID); err != nil {
		return err
	}
	for _, pt := range entity.PeriodTypes {
		if err := w.CalculateMetricsForUser(ctx, ownerID, pt); err != nil {
			return err
		}
	}
	return nil
}
