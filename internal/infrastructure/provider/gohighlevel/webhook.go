package gohighlevel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "x-ghl-signature"

// WebhookDecoder verifies and decodes GoHighLevel webhook deliveries.
type WebhookDecoder struct{}

// NewWebhookDecoder creates a GoHighLevel webhook decoder.
func NewWebhookDecoder() *WebhookDecoder {
	return &WebhookDecoder{}
}

func (d *WebhookDecoder) Provider() provider.ProviderType {
	return provider.ProviderGoHighLevel
}

// Verify compares signature with the HMAC of payload in constant time.
func (d *WebhookDecoder) Verify(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(payload, secret))
}

// Sign returns the raw HMAC-SHA256 of payload.
func Sign(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

type webhookBody struct {
	ID         string `json:"id"`
	WebhookID  string `json:"webhookId"`
	Type       string `json:"type"`
	LocationID string `json:"locationId"`
	ContactID  string `json:"contactId"`
	Data       struct {
		ID        string `json:"id"`
		ContactID string `json:"contactId"`
	} `json:"data"`
}

// Decode reads the event id, type and location. The id falls back to webhookId.
func (d *WebhookDecoder) Decode(payload []byte) (*provider.WebhookEvent, error) {
	var body webhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to decode gohighlevel event: %w", err)
	}

	id := body.ID
	if id == "" {
		id = body.WebhookID
	}
	contactID := body.ContactID
	if contactID == "" {
		contactID = body.Data.ContactID
	}

	return &provider.WebhookEvent{
		ID:         id,
		Type:       body.Type,
		AccountID:  body.LocationID,
		ObjectID:   body.Data.ID,
		CustomerID: contactID,
		Payload:    payload,
	}, nil
}
