package stripe

import (
	"encoding/json"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// WebhookDecoder verifies Stripe-Signature headers and decodes events.
type WebhookDecoder struct{}

// NewWebhookDecoder creates a Stripe webhook decoder.
func NewWebhookDecoder() *WebhookDecoder {
	return &WebhookDecoder{}
}

func (d *WebhookDecoder) Provider() provider.ProviderType {
	return provider.ProviderStripe
}

// Verify checks the signature header against secret with the SDK's default tolerance.
func (d *WebhookDecoder) Verify(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return webhook.ValidatePayload(payload, signature, secret) == nil
}

// Decode parses a Stripe event. CustomerID is taken from the object's customer
// field, or from the object itself when it is a customer.
func (d *WebhookDecoder) Decode(payload []byte) (*provider.WebhookEvent, error) {
	var event stripeapi.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode stripe event: %w", err)
	}

	out := &provider.WebhookEvent{
		ID:        event.ID,
		Type:      string(event.Type),
		AccountID: event.Account,
		Payload:   payload,
	}

	if event.Data != nil && event.Data.Object != nil {
		obj := event.Data.Object
		out.ObjectID = stringField(obj, "id")
		if stringField(obj, "object") == "customer" {
			out.CustomerID = out.ObjectID
		} else {
			out.CustomerID = expandableID(obj["customer"])
		}
	}

	return out, nil
}

func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

// expandableID handles fields that are either an id or an expanded object.
func expandableID(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]interface{}:
		return stringField(val, "id")
	}
	return ""
}
