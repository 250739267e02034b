package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
)

// StripeMirrorRepository stores mirrored Stripe records. Upserts are keyed by
// (owner_id, external_id).
type StripeMirrorRepository interface {
	UpsertCustomer(ctx context.Context, customer *model.StripeCustomer) error
	UpsertCharge(ctx context.Context, charge *model.StripeCharge) error
	UpsertInvoice(ctx context.Context, invoice *model.StripeInvoice) error
	UpsertSubscription(ctx context.Context, subscription *model.StripeSubscription) error

	// FindCustomerID returns the local id of a mirrored customer, or nil.
	FindCustomerID(ctx context.Context, ownerID uuid.UUID, externalID string) (*int64, error)
	FindOwnersByCustomerExternalID(ctx context.Context, externalID string) ([]uuid.UUID, error)
	FindOwnersByChargeExternalID(ctx context.Context, externalID string) ([]uuid.UUID, error)

	// EarliestActivity returns the oldest charge or customer creation time, or nil.
	EarliestActivity(ctx context.Context, ownerID uuid.UUID) (*time.Time, error)
	ListChargesCreatedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.StripeCharge, error)
	CountCustomersCreatedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int64, error)
	// CountActiveSubscriptionsAt counts subscriptions that are active, or were
	// canceled at or after at.
	CountActiveSubscriptionsAt(ctx context.Context, ownerID uuid.UUID, at time.Time) (int64, error)
}

// CRMMirrorRepository stores mirrored GoHighLevel records. Upserts are keyed by
// (owner_id, external_id).
type CRMMirrorRepository interface {
	UpsertContact(ctx context.Context, contact *model.GHLContact) error
	UpsertOpportunity(ctx context.Context, opportunity *model.GHLOpportunity) error
	UpsertAppointment(ctx context.Context, appointment *model.GHLAppointment) error

	FindContactID(ctx context.Context, ownerID uuid.UUID, externalID string) (*int64, error)

	// EarliestActivity returns the oldest contact, opportunity or appointment time, or nil.
	EarliestActivity(ctx context.Context, ownerID uuid.UUID) (*time.Time, error)
	CountContactsCreatedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int64, error)
	CountContactsCreatedBefore(ctx context.Context, ownerID uuid.UUID, end time.Time) (int64, error)
	ListAppointmentsStartingBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.GHLAppointment, error)
	ListOpportunitiesClosedBetween(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.GHLOpportunity, error)
	ListOpportunitiesByStatus(ctx context.Context, ownerID uuid.UUID, status string) ([]model.GHLOpportunity, error)
}
