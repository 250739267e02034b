package provider

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/config"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/fetch"
	ghlProvider "github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/provider/gohighlevel"
	stripeProvider "github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/provider/stripe"
)

// Factory creates provider clients bound to one owner's credential. All clients
// share one fetch client, so retry policy and metrics are uniform.
type Factory struct {
	fetch     *fetch.Client
	ghlConfig ghlProvider.Config
	stripeURL string
	logger    *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.Config, fc *fetch.Client, clock clockwork.Clock, logger *zap.Logger) *Factory {
	return &Factory{
		fetch: fc,
		ghlConfig: ghlProvider.Config{
			BaseURL:    cfg.GHL.BaseURL,
			APIVersion: cfg.GHL.APIVersion,
			Clock:      clock,
		},
		stripeURL: cfg.Stripe.APIURL,
		logger:    logger,
	}
}

// Stripe returns a Stripe client for cred.
func (f *Factory) Stripe(cred provider.Credential) provider.StripeAPI {
	return stripeProvider.NewClient(cred.APIKey, stripeProvider.Options{
		Transport: f.fetch.Transport(),
		URL:       f.stripeURL,
	}, f.logger.With(zap.String("provider", provider.ProviderStripe.Slug())))
}

// GHL returns a GoHighLevel client for cred.
func (f *Factory) GHL(cred provider.Credential) provider.GHLAPI {
	return ghlProvider.NewClient(f.fetch, f.ghlConfig, cred,
		f.logger.With(zap.String("provider", provider.ProviderGoHighLevel.Slug())))
}

// WebhookDecoders returns the decoder of every supported provider.
func WebhookDecoders() []provider.WebhookDecoder {
	return []provider.WebhookDecoder{
		stripeProvider.NewWebhookDecoder(),
		ghlProvider.NewWebhookDecoder(),
	}
}
