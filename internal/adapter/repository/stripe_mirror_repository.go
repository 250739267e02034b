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

// naturalKey is the conflict target shared by every mirror table.
var naturalKey = []clause.Column{{Name: "owner_id"}, {Name: "external_id"}}

func upsertOnNaturalKey(columns ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   naturalKey,
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}
}

type stripeMirrorRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStripeMirrorRepository creates a new Stripe mirror repository
func NewStripeMirrorRepository(db *gorm.DB, logger *zap.Logger) domainRepo.StripeMirrorRepository {
	return &stripeMirrorRepository{
		db:     db,
		logger: logger,
	}
}

func (r *stripeMirrorRepository) upsert(ctx context.Context, entity string, value interface{}, onConflict clause.OnConflict) error {
	if err := r.db.WithContext(ctx).Clauses(onConflict).Create(value).Error; err != nil {
		r.logger.Error("Failed to upsert stripe record",
			zap.String("entity", entity),
			zap.Error(err))
		return fmt.Errorf("failed to upsert stripe %s: %w", entity, err)
	}
	return nil
}

func (r *stripeMirrorRepository) UpsertCustomer(ctx context.Context, customer *model.StripeCustomer) error {
	return r.upsert(ctx, "customer", customer,
		upsertOnNaturalKey("email", "name", "created_at_provider"))
}

func (r *stripeMirrorRepository) UpsertCharge(ctx context.Context, charge *model.StripeCharge) error {
	return r.upsert(ctx, "charge", charge,
		upsertOnNaturalKey("customer_id", "amount", "refund_amount", "currency", "status", "refunded", "created_at_provider"))
}

func (r *stripeMirrorRepository) UpsertInvoice(ctx context.Context, invoice *model.StripeInvoice) error {
	return r.upsert(ctx, "invoice", invoice,
		upsertOnNaturalKey("customer_id", "amount_due", "amount_paid", "currency", "status", "created_at_provider"))
}

func (r *stripeMirrorRepository) UpsertSubscription(ctx context.Context, subscription *model.StripeSubscription) error {
	return r.upsert(ctx, "subscription", subscription,
		upsertOnNaturalKey("customer_id", "status", "current_period_start", "current_period_end", "canceled_at", "created_at_provider"))
}

func (r *stripeMirrorRepository) FindCustomerID(ctx context.Context, ownerID uuid.UUID, externalID string) (*int64, error) {
	if externalID == "" {
		return nil, nil
	}

	var customer model.StripeCustomer
	err := r.db.WithContext(ctx).
		Select("id").
		Where("owner_id = ? AND external_id = ?", ownerID, externalID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find stripe customer",
			zap.String("owner_id", ownerID.String()),
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find stripe customer: %w", err)
	}
	return &customer.ID, nil
}

func (r *stripeMirrorRepository) FindOwnersByCustomerExternalID(ctx context.Context, externalID string) ([]uuid.UUID, error) {
	return r.distinctOwners(ctx, &model.StripeCustomer{}, externalID)
}

func (r *stripeMirrorRepository) FindOwnersByChargeExternalID(ctx context.Context, externalID string) ([]uuid.UUID, error) {
	return r.distinctOwners(ctx, &model.StripeCharge{}, externalID)
}

func (r *stripeMirrorRepository) distinctOwners(ctx context.Context, table interface{}, externalID string) ([]uuid.UUID, error) {
	if externalID == "" {
		return nil, nil
	}

	var owners []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(table).
		Distinct("owner_id").
		Where("external_id = ?", externalID).
		Pluck("owner_id", &owners).Error
	if err != nil {
		r.logger.Error("Failed to find owners by external id",
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find owners: %w", err)
	}
	return owners, nil
}

func (r *stripeMirrorRepository) EarliestActivity(ctx context.Context, ownerID uuid.UUID) (*time.Time, error) {
	var earliest *time.Time
	for _, table := range []interface{}{&model.StripeCharge{}, &model.StripeCustomer{}} {
		t, err := minTime(ctx, r.db, table, "created_at_provider", ownerID)
		if err != nil {
			r.logger.Error("Failed to find earliest stripe activity",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("failed to find earliest stripe activity: %w", err)
		}
		earliest = earlier(earliest, t)
	}
	return earliest, nil
}

func (r *stripeMirrorRepository) ListChargesCreatedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.StripeCharge, error) {
	var charges []model.StripeCharge
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND created_at_provider >= ? AND created_at_provider < ?", ownerID, start, end).
		Order("created_at_provider ASC, id ASC").
		Find(&charges).Error
	if err != nil {
		r.logger.Error("Failed to list stripe charges",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list stripe charges: %w", err)
	}
	return charges, nil
}

func (r *stripeMirrorRepository) CountCustomersCreatedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StripeCustomer{}).
		Where("owner_id = ? AND created_at_provider >= ? AND created_at_provider < ?", ownerID, start, end).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count stripe customers",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count stripe customers: %w", err)
	}
	return count, nil
}

func (r *stripeMirrorRepository) CountActiveSubscriptionsAt(ctx context.Context, ownerID uuid.UUID, at time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StripeSubscription{}).
		Where("owner_id = ?", ownerID).
		Where(r.db.Where("status = ?", model.SubscriptionStatusActive).
			Or("status = ? AND canceled_at >= ?", model.SubscriptionStatusCanceled, at)).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count active subscriptions",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count active subscriptions: %w", err)
	}
	return count, nil
}

// minTime returns MIN(column) for the owner's rows, or nil when there are none.
func minTime(ctx context.Context, db *gorm.DB, table interface{}, column string, ownerID uuid.UUID) (*time.Time, error) {
	var rows []time.Time
	err := db.WithContext(ctx).
		Model(table).
		Where("owner_id = ?", ownerID).
		Order(column + " ASC").
		Limit(1).
		Pluck(column, &rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rows[0].UTC()
	return &t, nil
}

func earlier(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}
