package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

type auditRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AuditRepository {
	return &auditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *auditRepository) Record(ctx context.Context, entry *model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error("Failed to record audit log",
			zap.String("owner_id", entry.OwnerID.String()),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		r.logger.Error("Failed to list audit logs",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}
