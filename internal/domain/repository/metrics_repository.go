package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
)

// MetricsRepository stores aggregate buckets keyed by (owner, period start, period type).
type MetricsRepository interface {
	UpsertRevenueMetric(ctx context.Context, metric *model.RevenueMetric) error
	UpsertCRMMetric(ctx context.Context, metric *model.CRMMetric) error

	DeleteRevenueMetrics(ctx context.Context, ownerID uuid.UUID) error
	DeleteCRMMetrics(ctx context.Context, ownerID uuid.UUID) error

	// ListRevenueMetrics returns up to limit buckets, newest period first.
	ListRevenueMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.RevenueMetric, error)
	// ListCRMMetrics returns up to limit buckets, newest period first.
	ListCRMMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.CRMMetric, error)
}

// AuditRepository appends and reads integration audit entries.
type AuditRepository interface {
	Record(ctx context.Context, entry *model.AuditLog) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.AuditLog, error)
}
