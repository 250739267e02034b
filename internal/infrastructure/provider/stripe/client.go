// Package stripe adapts stripe-go to provider.StripeAPI. SDK types stay in this
// package.
package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// subscriptionStatusAll lists subscriptions in every status, canceled included.
const subscriptionStatusAll = "all"

// Client implements provider.StripeAPI for one secret key.
type Client struct {
	api    *client.API
	logger *zap.Logger
}

// Options configures the SDK backend.
type Options struct {
	// Transport carries every SDK request. It is expected to apply the retry policy,
	// so the SDK's own retries are disabled.
	Transport http.RoundTripper
	// URL overrides the API base URL, for tests.
	URL string
}

// NewClient creates a Stripe client bound to secretKey.
func NewClient(secretKey string, opts Options, logger *zap.Logger) *Client {
	cfg := &stripeapi.BackendConfig{
		HTTPClient:        &http.Client{Transport: opts.Transport},
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     logger.Named("stripe-sdk").Sugar(),
	}
	if opts.URL != "" {
		cfg.URL = stripeapi.String(opts.URL)
	}

	backends := &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, cfg),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, cfg),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, cfg),
	}

	return &Client{
		api:    client.New(secretKey, backends),
		logger: logger,
	}
}

func listParams(ctx context.Context, cursor string, pageSize int) stripeapi.ListParams {
	lp := stripeapi.ListParams{
		Context: ctx,
		Limit:   stripeapi.Int64(int64(pageSize)),
		Single:  true,
	}
	if cursor != "" {
		lp.StartingAfter = stripeapi.String(cursor)
	}
	return lp
}

func createdRange(createdAfter int64) *stripeapi.RangeQueryParams {
	if createdAfter <= 0 {
		return nil
	}
	return &stripeapi.RangeQueryParams{GreaterThanOrEqual: createdAfter}
}

// ListCustomers lists customers created at or after createdAfter.
func (c *Client) ListCustomers(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Customer], error) {
	params := &stripeapi.CustomerListParams{
		ListParams:   listParams(ctx, cursor, pageSize),
		CreatedRange: createdRange(createdAfter),
	}

	it := c.api.Customers.List(params)
	page := &provider.Page[provider.Customer]{}
	for it.Next() {
		cust := it.Customer()
		page.Items = append(page.Items, provider.Customer{
			ExternalID: cust.ID,
			Email:      cust.Email,
			Name:       cust.Name,
			CreatedAt:  unixTime(cust.Created),
		})
		page.NextCursor = cust.ID
	}
	if err := it.Err(); err != nil {
		return nil, c.translateError(err, "list customers")
	}
	page.HasMore = it.Meta().HasMore
	return page, nil
}

// ListCharges lists charges created at or after createdAfter.
func (c *Client) ListCharges(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Charge], error) {
	params := &stripeapi.ChargeListParams{
		ListParams:   listParams(ctx, cursor, pageSize),
		CreatedRange: createdRange(createdAfter),
	}

	it := c.api.Charges.List(params)
	page := &provider.Page[provider.Charge]{}
	for it.Next() {
		ch := it.Charge()
		page.Items = append(page.Items, provider.Charge{
			ExternalID:         ch.ID,
			CustomerExternalID: customerID(ch.Customer),
			Amount:             ch.Amount,
			AmountRefunded:     ch.AmountRefunded,
			Currency:           string(ch.Currency),
			Status:             string(ch.Status),
			Refunded:           ch.Refunded,
			CreatedAt:          unixTime(ch.Created),
		})
		page.NextCursor = ch.ID
	}
	if err := it.Err(); err != nil {
		return nil, c.translateError(err, "list charges")
	}
	page.HasMore = it.Meta().HasMore
	return page, nil
}

// ListInvoices lists invoices created at or after createdAfter.
func (c *Client) ListInvoices(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Invoice], error) {
	params := &stripeapi.InvoiceListParams{
		ListParams:   listParams(ctx, cursor, pageSize),
		CreatedRange: createdRange(createdAfter),
	}

	it := c.api.Invoices.List(params)
	page := &provider.Page[provider.Invoice]{}
	for it.Next() {
		inv := it.Invoice()
		page.Items = append(page.Items, provider.Invoice{
			ExternalID:         inv.ID,
			CustomerExternalID: customerID(inv.Customer),
			AmountDue:          inv.AmountDue,
			AmountPaid:         inv.AmountPaid,
			Currency:           string(inv.Currency),
			Status:             string(inv.Status),
			CreatedAt:          unixTime(inv.Created),
		})
		page.NextCursor = inv.ID
	}
	if err := it.Err(); err != nil {
		return nil, c.translateError(err, "list invoices")
	}
	page.HasMore = it.Meta().HasMore
	return page, nil
}

// ListSubscriptions lists subscriptions of every status created at or after
// createdAfter.
func (c *Client) ListSubscriptions(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Subscription], error) {
	params := &stripeapi.SubscriptionListParams{
		ListParams:   listParams(ctx, cursor, pageSize),
		CreatedRange: createdRange(createdAfter),
		Status:       stripeapi.String(subscriptionStatusAll),
	}

	it := c.api.Subscriptions.List(params)
	page := &provider.Page[provider.Subscription]{}
	for it.Next() {
		sub := it.Subscription()
		page.Items = append(page.Items, provider.Subscription{
			ExternalID:         sub.ID,
			CustomerExternalID: customerID(sub.Customer),
			Status:             string(sub.Status),
			CurrentPeriodStart: optionalUnixTime(sub.CurrentPeriodStart),
			CurrentPeriodEnd:   optionalUnixTime(sub.CurrentPeriodEnd),
			CanceledAt:         optionalUnixTime(sub.CanceledAt),
			CreatedAt:          unixTime(sub.Created),
		})
		page.NextCursor = sub.ID
	}
	if err := it.Err(); err != nil {
		return nil, c.translateError(err, "list subscriptions")
	}
	page.HasMore = it.Meta().HasMore
	return page, nil
}

// translateError converts SDK errors into provider errors.
func (c *Client) translateError(err error, op string) error {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		c.logger.Error("Stripe API call failed",
			zap.String("operation", op),
			zap.Int("status", stripeErr.HTTPStatusCode),
			zap.String("code", string(stripeErr.Code)),
			zap.String("request_id", stripeErr.RequestID),
		)
		return &provider.ProviderError{
			Provider:   provider.ProviderStripe,
			StatusCode: stripeErr.HTTPStatusCode,
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
		}
	}

	c.logger.Error("Stripe API call failed", zap.String("operation", op), zap.Error(err))
	return err
}

func customerID(cust *stripeapi.Customer) string {
	if cust == nil {
		return ""
	}
	return cust.ID
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func optionalUnixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := unixTime(sec)
	return &t
}
