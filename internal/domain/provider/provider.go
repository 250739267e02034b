// Package provider holds the provider-agnostic contracts and DTOs that sync,
// webhook and aggregation code depend on. Third-party SDK types never cross it.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderType identifies an upstream integration.
type ProviderType string

const (
	ProviderStripe      ProviderType = "STRIPE"
	ProviderGoHighLevel ProviderType = "GOHIGHLEVEL"
)

// ProviderTypes lists every supported provider in scheduling order.
var ProviderTypes = []ProviderType{ProviderStripe, ProviderGoHighLevel}

func (p ProviderType) String() string { return string(p) }

// Slug is the lower-case form used in URLs and metric labels.
func (p ProviderType) Slug() string { return strings.ToLower(string(p)) }

// ParseProviderType accepts either the stored form or a URL slug.
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ProviderStripe):
		return ProviderStripe, nil
	case string(ProviderGoHighLevel), "GHL":
		return ProviderGoHighLevel, nil
	}
	return "", fmt.Errorf("unsupported provider %q", s)
}

// DefaultPageSize is the page size requested from every list endpoint.
const DefaultPageSize = 100

// Page is one page of a provider list call.
type Page[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor string
}

// ListFunc fetches one page starting at cursor ("" for the first page) for records
// created at or after createdAfter (unix seconds).
type ListFunc[T any] func(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[T], error)

// StripeAPI is the subset of the Stripe API the sync engine reads.
type StripeAPI interface {
	ListCustomers(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Customer], error)
	ListCharges(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Charge], error)
	ListInvoices(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Invoice], error)
	ListSubscriptions(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Subscription], error)
}

// GHLAPI is the subset of the GoHighLevel API the sync engine reads.
type GHLAPI interface {
	ListContacts(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Contact], error)
	ListOpportunities(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Opportunity], error)
	ListAppointments(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*Page[Appointment], error)
}

// Credential is the decrypted connection material for one integration.
type Credential struct {
	APIKey    string
	AccountID string
}

// ClientFactory builds provider clients bound to one owner's credential.
type ClientFactory interface {
	Stripe(cred Credential) StripeAPI
	GHL(cred Credential) GHLAPI
}

// Customer is a normalized Stripe customer.
type Customer struct {
	ExternalID string
	Email      string
	Name       string
	CreatedAt  time.Time
}

// Charge is a normalized Stripe charge. Amounts are minor units.
type Charge struct {
	ExternalID         string
	CustomerExternalID string
	Amount             int64
	AmountRefunded     int64
	Currency           string
	Status             string
	Refunded           bool
	CreatedAt          time.Time
}

// Invoice is a normalized Stripe invoice. Amounts are minor units.
type Invoice struct {
	ExternalID         string
	CustomerExternalID string
	AmountDue          int64
	AmountPaid         int64
	Currency           string
	Status             string
	CreatedAt          time.Time
}

// Subscription is a normalized Stripe subscription.
type Subscription struct {
	ExternalID         string
	CustomerExternalID string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CanceledAt         *time.Time
	CreatedAt          time.Time
}

// Contact is a normalized GoHighLevel contact.
type Contact struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Source     string
	Tags       []string
	CreatedAt  time.Time
}

// Opportunity is a normalized GoHighLevel opportunity. MonetaryValue is in currency
// units as reported by GoHighLevel.
type Opportunity struct {
	ExternalID        string
	ContactExternalID string
	Name              string
	Status            string
	MonetaryValue     decimal.Decimal
	PipelineID        string
	StageID           string
	ClosedAt          *time.Time
	CreatedAt         time.Time
}

// Appointment is a normalized GoHighLevel appointment.
type Appointment struct {
	ExternalID        string
	ContactExternalID string
	Title             string
	Status            string
	StartTime         time.Time
	EndTime           *time.Time
	CreatedAt         time.Time
}

// WebhookEvent is a verified webhook delivery reduced to what routing needs.
type WebhookEvent struct {
	ID   string
	Type string
	// AccountID is the provider account the event belongs to (Stripe account,
	// GoHighLevel location).
	AccountID string
	// ObjectID and CustomerID identify the event's object for owner fallback lookups.
	ObjectID   string
	CustomerID string
	Payload    []byte
}

// WebhookDecoder verifies and normalizes the webhook deliveries of one provider.
type WebhookDecoder interface {
	Provider() ProviderType
	Verify(payload []byte, signature, secret string) bool
	Decode(payload []byte) (*WebhookEvent, error)
}

// ProviderError is returned by provider clients when the upstream rejects a call.
type ProviderError struct {
	Provider   ProviderType
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error %d (%s): %s", e.Provider.Slug(), e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error %d: %s", e.Provider.Slug(), e.StatusCode, e.Message)
}
