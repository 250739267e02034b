package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// Stripe event types that trigger an incremental sync.
var StripeDispatchTypes = []string{
	"charge.created",
	"charge.succeeded",
	"charge.refunded",
	"customer.created",
	"customer.subscription.created",
	"customer.subscription.updated",
	"invoice.paid",
}

// GoHighLevel event types that trigger an incremental sync. Both the workflow and
// the marketplace spellings are accepted.
var GHLDispatchTypes = []string{
	"ContactCreate", "ContactUpdate", "contact.create", "contact.update",
	"OpportunityCreate", "OpportunityUpdate", "opportunity.create", "opportunity.update",
	"AppointmentCreate", "AppointmentUpdate", "appointment.create", "appointment.update",
}

// StripeOwnerResolver resolves by connected account, then by mirrored customer,
// then by mirrored charge. Mirror matches count only when exactly one owner has
// the record.
type StripeOwnerResolver struct {
	integrations repository.IntegrationRepository
	mirror       repository.StripeMirrorRepository
}

func NewStripeOwnerResolver(integrations repository.IntegrationRepository, mirror repository.StripeMirrorRepository) *StripeOwnerResolver {
	return &StripeOwnerResolver{integrations: integrations, mirror: mirror}
}

func (r *StripeOwnerResolver) ResolveOwner(ctx context.Context, event *provider.WebhookEvent) (uuid.UUID, error) {
	if event.AccountID != "" {
		integration, err := r.integrations.FindByAccountID(ctx, provider.ProviderStripe, event.AccountID)
		if err != nil {
			return model.UnknownOwnerID, err
		}
		if integration != nil {
			return integration.OwnerID, nil
		}
	}

	if event.CustomerID != "" {
		owners, err := r.mirror.FindOwnersByCustomerExternalID(ctx, event.CustomerID)
		if err != nil {
			return model.UnknownOwnerID, err
		}
		if len(owners) == 1 {
			return owners[0], nil
		}
	}

	if event.ObjectID != "" {
		owners, err := r.mirror.FindOwnersByChargeExternalID(ctx, event.ObjectID)
		if err != nil {
			return model.UnknownOwnerID, err
		}
		if len(owners) == 1 {
			return owners[0], nil
		}
	}

	return model.UnknownOwnerID, nil
}

// GHLOwnerResolver resolves by location id. Events without one are unknown.
type GHLOwnerResolver struct {
	integrations repository.IntegrationRepository
}

func NewGHLOwnerResolver(integrations repository.IntegrationRepository) *GHLOwnerResolver {
	return &GHLOwnerResolver{integrations: integrations}
}

func (r *GHLOwnerResolver) ResolveOwner(ctx context.Context, event *provider.WebhookEvent) (uuid.UUID, error) {
	if event.AccountID == "" {
		return model.UnknownOwnerID, nil
	}
	integration, err := r.integrations.FindByAccountID(ctx, provider.ProviderGoHighLevel, event.AccountID)
	if err != nil {
		return model.UnknownOwnerID, err
	}
	if integration == nil {
		return model.UnknownOwnerID, nil
	}
	return integration.OwnerID, nil
}
