package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

var bucketKey = []clause.Column{{Name: "owner_id"}, {Name: "period_start"}, {Name: "period_type"}}

type metricsRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewMetricsRepository creates a new aggregate metrics repository
func NewMetricsRepository(db *gorm.DB, logger *zap.Logger) domainRepo.MetricsRepository {
	return &metricsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *metricsRepository) UpsertRevenueMetric(ctx context.Context, metric *model.RevenueMetric) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: bucketKey,
			DoUpdates: clause.AssignmentColumns([]string{
				"period_end", "total_revenue", "refunded_revenue", "net_revenue",
				"charge_count", "refund_count", "customer_count", "new_customer_count",
				"active_subscriptions", "updated_at",
			}),
		}).
		Create(metric).Error
	if err != nil {
		r.logger.Error("Failed to upsert revenue metric",
			zap.String("owner_id", metric.OwnerID.String()),
			zap.String("period_type", string(metric.PeriodType)),
			zap.Time("period_start", metric.PeriodStart),
			zap.Error(err))
		return fmt.Errorf("failed to upsert revenue metric: %w", err)
	}
	return nil
}

func (r *metricsRepository) UpsertCRMMetric(ctx context.Context, metric *model.CRMMetric) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: bucketKey,
			DoUpdates: clause.AssignmentColumns([]string{
				"period_end", "new_leads", "total_leads", "appointments_booked",
				"appointments_showed", "appointments_no_show", "show_rate",
				"opportunities_won", "opportunities_lost", "pipeline_value", "won_value",
				"updated_at",
			}),
		}).
		Create(metric).Error
	if err != nil {
		r.logger.Error("Failed to upsert crm metric",
			zap.String("owner_id", metric.OwnerID.String()),
			zap.String("period_type", string(metric.PeriodType)),
			zap.Time("period_start", metric.PeriodStart),
			zap.Error(err))
		return fmt.Errorf("failed to upsert crm metric: %w", err)
	}
	return nil
}

func (r *metricsRepository) DeleteRevenueMetrics(ctx context.Context, ownerID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&model.RevenueMetric{}).Error; err != nil {
		r.logger.Error("Failed to delete revenue metrics",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to delete revenue metrics: %w", err)
	}
	return nil
}

func (r *metricsRepository) DeleteCRMMetrics(ctx context.Context, ownerID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&model.CRMMetric{}).Error; err != nil {
		r.logger.Error("Failed to delete crm metrics",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to delete crm metrics: %w", err)
	}
	return nil
}

func (r *metricsRepository) ListRevenueMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.RevenueMetric, error) {
	var metrics []model.RevenueMetric
	if err := r.latest(ctx, ownerID, periodType, limit).Find(&metrics).Error; err != nil {
		r.logger.Error("Failed to list revenue metrics",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list revenue metrics: %w", err)
	}
	return metrics, nil
}

func (r *metricsRepository) ListCRMMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.CRMMetric, error) {
	var metrics []model.CRMMetric
	if err := r.latest(ctx, ownerID, periodType, limit).Find(&metrics).Error; err != nil {
		r.logger.Error("Failed to list crm metrics",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list crm metrics: %w", err)
	}
	return metrics, nil
}

func (r *metricsRepository) latest(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) *gorm.DB {
	query := r.db.WithContext(ctx).
		Where("owner_id = ? AND period_type = ?", ownerID, periodType).
		Order("period_start DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}
