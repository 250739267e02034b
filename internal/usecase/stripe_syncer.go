package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/repository"
)

// Stripe entity names, in processing order.
const (
	EntityCustomers     = "customers"
	EntityCharges       = "charges"
	EntityInvoices      = "invoices"
	EntitySubscriptions = "subscriptions"
)

// StripeSyncer mirrors customers, charges, invoices and subscriptions.
type StripeSyncer struct {
	clients  provider.ClientFactory
	mirror   repository.StripeMirrorRepository
	pageSize int
	logger   *zap.Logger
}

func NewStripeSyncer(clients provider.ClientFactory, mirror repository.StripeMirrorRepository, logger *zap.Logger) *StripeSyncer {
	return &StripeSyncer{
		clients:  clients,
		mirror:   mirror,
		pageSize: provider.DefaultPageSize,
		logger:   logger,
	}
}

func (s *StripeSyncer) Provider() provider.ProviderType {
	return provider.ProviderStripe
}

func (s *StripeSyncer) Steps(ownerID uuid.UUID, cred provider.Credential) []SyncStep {
	api := s.clients.Stripe(cred)

	return []SyncStep{
		{Entity: EntityCustomers, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListCustomers, createdAfter, s.pageSize, func(ctx context.Context, c provider.Customer) (bool, error) {
				return true, s.mirror.UpsertCustomer(ctx, &model.StripeCustomer{
					OwnerID:           ownerID,
					ExternalID:        c.ExternalID,
					Email:             optionalString(c.Email),
					Name:              optionalString(c.Name),
					CreatedAtProvider: c.CreatedAt,
				})
			})
		}},
		{Entity: EntityCharges, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListCharges, createdAfter, s.pageSize, func(ctx context.Context, c provider.Charge) (bool, error) {
				customerID, err := s.mirror.FindCustomerID(ctx, ownerID, c.CustomerExternalID)
				if err != nil {
					return false, err
				}
				return true, s.mirror.UpsertCharge(ctx, &model.StripeCharge{
					OwnerID:           ownerID,
					ExternalID:        c.ExternalID,
					CustomerID:        customerID,
					Amount:            c.Amount,
					RefundAmount:      c.AmountRefunded,
					Currency:          c.Currency,
					Status:            c.Status,
					Refunded:          c.Refunded,
					CreatedAtProvider: c.CreatedAt,
				})
			})
		}},
		{Entity: EntityInvoices, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListInvoices, createdAfter, s.pageSize, func(ctx context.Context, inv provider.Invoice) (bool, error) {
				customerID, err := s.mirror.FindCustomerID(ctx, ownerID, inv.CustomerExternalID)
				if err != nil {
					return false, err
				}
				return true, s.mirror.UpsertInvoice(ctx, &model.StripeInvoice{
					OwnerID:           ownerID,
					ExternalID:        inv.ExternalID,
					CustomerID:        customerID,
					AmountDue:         inv.AmountDue,
					AmountPaid:        inv.AmountPaid,
					Currency:          inv.Currency,
					Status:            inv.Status,
					CreatedAtProvider: inv.CreatedAt,
				})
			})
		}},
		{Entity: EntitySubscriptions, Run: func(ctx context.Context, createdAfter int64) (int, error) {
			return paginate(ctx, api.ListSubscriptions, createdAfter, s.pageSize, func(ctx context.Context, sub provider.Subscription) (bool, error) {
				customerID, err := s.mirror.FindCustomerID(ctx, ownerID, sub.CustomerExternalID)
				if err != nil {
					return false, err
				}
				// Subscriptions require a mirrored customer. Customers created before
				// the lookback window are not mirrored, so these are skipped.
				if customerID == nil {
					s.logger.Warn("Skipping subscription without mirrored customer",
						zap.String("owner_id", ownerID.String()),
						zap.String("subscription_id", sub.ExternalID),
						zap.String("customer_id", sub.CustomerExternalID))
					return false, nil
				}
				return true, s.mirror.UpsertSubscription(ctx, &model.StripeSubscription{
					OwnerID:            ownerID,
					ExternalID:         sub.ExternalID,
					CustomerID:         *customerID,
					Status:             sub.Status,
					CurrentPeriodStart: sub.CurrentPeriodStart,
					CurrentPeriodEnd:   sub.CurrentPeriodEnd,
					CanceledAt:         sub.CanceledAt,
					CreatedAtProvider:  sub.CreatedAt,
				})
			})
		}},
	}
}
