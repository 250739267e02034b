package model

import (
	"time"

	"github.com/google/uuid"
)

// Stripe charge statuses used by aggregation.
const ChargeStatusSucceeded = "succeeded"

// Stripe subscription statuses used by aggregation.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
)

// StripeCustomer mirrors a Stripe customer.
type StripeCustomer struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_stripe_customers_owner_external,priority:1" json:"owner_id"`
	ExternalID        string    `gorm:"size:255;not null;uniqueIndex:ux_stripe_customers_owner_external,priority:2" json:"external_id"`
	Email             *string   `gorm:"size:320" json:"email,omitempty"`
	Name              *string   `gorm:"size:255" json:"name,omitempty"`
	CreatedAtProvider time.Time `gorm:"not null;index" json:"created_at_provider"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (StripeCustomer) TableName() string { return "stripe_customers" }

// StripeCharge mirrors a Stripe charge. Amounts are minor units.
type StripeCharge struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_stripe_charges_owner_external,priority:1;index:idx_stripe_charges_owner_created,priority:1" json:"owner_id"`
	ExternalID        string    `gorm:"size:255;not null;uniqueIndex:ux_stripe_charges_owner_external,priority:2" json:"external_id"`
	CustomerID        *int64    `gorm:"index" json:"customer_id,omitempty"`
	Amount            int64     `gorm:"not null" json:"amount"`
	RefundAmount      int64     `gorm:"not null;default:0" json:"refund_amount"`
	Currency          string    `gorm:"size:8;not null" json:"currency"`
	Status            string    `gorm:"size:32;not null" json:"status"`
	Refunded          bool      `gorm:"not null;default:false" json:"refunded"`
	CreatedAtProvider time.Time `gorm:"not null;index:idx_stripe_charges_owner_created,priority:2" json:"created_at_provider"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (StripeCharge) TableName() string { return "stripe_charges" }

// StripeInvoice mirrors a Stripe invoice. Amounts are minor units.
type StripeInvoice struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_stripe_invoices_owner_external,priority:1" json:"owner_id"`
	ExternalID        string    `gorm:"size:255;not null;uniqueIndex:ux_stripe_invoices_owner_external,priority:2" json:"external_id"`
	CustomerID        *int64    `gorm:"index" json:"customer_id,omitempty"`
	AmountDue         int64     `gorm:"not null" json:"amount_due"`
	AmountPaid        int64     `gorm:"not null" json:"amount_paid"`
	Currency          string    `gorm:"size:8;not null" json:"currency"`
	Status            string    `gorm:"size:32" json:"status"`
	CreatedAtProvider time.Time `gorm:"not null;index" json:"created_at_provider"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (StripeInvoice) TableName() string { return "stripe_invoices" }

// StripeSubscription mirrors a Stripe subscription. It always references a
// mirrored customer.
type StripeSubscription struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_stripe_subscriptions_owner_external,priority:1" json:"owner_id"`
	ExternalID         string     `gorm:"size:255;not null;uniqueIndex:ux_stripe_subscriptions_owner_external,priority:2" json:"external_id"`
	CustomerID         int64      `gorm:"not null;index" json:"customer_id"`
	Status             string     `gorm:"size:32;not null;index" json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	CreatedAtProvider  time.Time  `gorm:"not null" json:"created_at_provider"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (StripeSubscription) TableName() string { return "stripe_subscriptions" }
