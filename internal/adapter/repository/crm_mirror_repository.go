package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	domainRepo "github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

type crmMirrorRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCRMMirrorRepository creates a new GoHighLevel mirror repository
func NewCRMMirrorRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CRMMirrorRepository {
	return &crmMirrorRepository{
		db:     db,
		logger: logger,
	}
}

func (r *crmMirrorRepository) upsert(ctx context.Context, entity string, value interface{}, onConflict clause.OnConflict) error {
	if err := r.db.WithContext(ctx).Clauses(onConflict).Create(value).Error; err != nil {
		r.logger.Error("Failed to upsert gohighlevel record",
			zap.String("entity", entity),
			zap.Error(err))
		return fmt.Errorf("failed to upsert gohighlevel %s: %w", entity, err)
	}
	return nil
}

// Creation times are kept from the first insert since GoHighLevel may omit them.

func (r *crmMirrorRepository) UpsertContact(ctx context.Context, contact *model.GHLContact) error {
	return r.upsert(ctx, "contact", contact,
		upsertOnNaturalKey("email", "first_name", "last_name", "phone", "source", "tags"))
}

func (r *crmMirrorRepository) UpsertOpportunity(ctx context.Context, opportunity *model.GHLOpportunity) error {
	return r.upsert(ctx, "opportunity", opportunity,
		upsertOnNaturalKey("contact_id", "name", "status", "monetary_value", "pipeline_id", "stage_id", "closed_at"))
}

func (r *crmMirrorRepository) UpsertAppointment(ctx context.Context, appointment *model.GHLAppointment) error {
	return r.upsert(ctx, "appointment", appointment,
		upsertOnNaturalKey("contact_id", "title", "status", "start_time", "end_time"))
}

func (r *crmMirrorRepository) FindContactID(ctx context.Context, ownerID uuid.UUID, externalID string) (*int64, error) {
	if externalID == "" {
		return nil, nil
	}

	var contact model.GHLContact
	err := r.db.WithContext(ctx).
		Select("id").
		Where("owner_id = ? AND external_id = ?", ownerID, externalID).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find gohighlevel contact",
			zap.String("owner_id", ownerID.String()),
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find gohighlevel contact: %w", err)
	}
	return &contact.ID, nil
}

func (r *crmMirrorRepository) EarliestActivity(ctx context.Context, ownerID uuid.UUID) (*time.Time, error) {
	sources := []struct {
		table  interface{}
		column string
	}{
		{&model.GHLContact{}, "created_at_provider"},
		{&model.GHLOpportunity{}, "created_at_provider"},
		{&model.GHLAppointment{}, "start_time"},
	}

	var earliest *time.Time
	for _, src := range sources {
		t, err := minTime(ctx, r.db, src.table, src.column, ownerID)
		if err != nil {
			r.logger.Error("Failed to find earliest gohighlevel activity",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("failed to find earliest gohighlevel activity: %w", err)
		}
		earliest = earlier(earliest, t)
	}
	return earliest, nil
}

func (r *crmMirrorRepository) CountContactsCreatedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GHLContact{}).
		Where("owner_id = ? AND created_at_provider >= ? AND created_at_provider < ?", ownerID, start, end).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count gohighlevel contacts",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count gohighlevel contacts: %w", err)
	}
	return count, nil
}

func (r *crmMirrorRepository) CountContactsCreatedBefore(ctx context.Context, ownerID uuid.UUID, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GHLContact{}).
		Where("owner_id = ? AND created_at_provider < ?", ownerID, end).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count cumulative gohighlevel contacts",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count cumulative gohighlevel contacts: %w", err)
	}
	return count, nil
}

func (r *crmMirrorRepository) ListAppointmentsStartingBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.GHLAppointment, error) {
	var appointments []model.GHLAppointment
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND start_time >= ? AND start_time < ?", ownerID, start, end).
		Order("start_time ASC, id ASC").
		Find(&appointments).Error
	if err != nil {
		r.logger.Error("Failed to list gohighlevel appointments",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list gohighlevel appointments: %w", err)
	}
	return appointments, nil
}

func (r *crmMirrorRepository) ListOpportunitiesClosedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.GHLOpportunity, error) {
	var opportunities []model.GHLOpportunity
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND closed_at >= ? AND closed_at < ?", ownerID, start, end).
		Order("closed_at ASC, id ASC").
		Find(&opportunities).Error
	if err != nil {
		r.logger.Error("Failed to list closed gohighlevel opportunities",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list closed gohighlevel opportunities: %w", err)
	}
	return opportunities, nil
}

func (r *crmMirrorRepository) ListOpportunitiesByStatus(ctx context.Context, ownerID uuid.UUID, status string) ([]model.GHLOpportunity, error) {
	var opportunities []model.GHLOpportunity
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, status).
		Order("id ASC").
		Find(&opportunities).Error
	if err != nil {
		r.logger.Error("Failed to list gohighlevel opportunities",
			zap.String("owner_id", ownerID.String()),
			zap.String("status", status),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list gohighlevel opportunities: %w", err)
	}
	return opportunities, nil
}
