package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	apperrors "github.com/SuarfelG/amber-business-health-monitor/pkg/errors"
)

// maxWebhookBody caps webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// WebhookIngester is implemented by usecase.WebhookGateway.
type WebhookIngester interface {
	Provider() provider.ProviderType
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

// WebhookHandler receives provider webhooks. Each provider reads its signature
// from its own header.
type WebhookHandler struct {
	logger    *zap.Logger
	gateways  map[provider.ProviderType]WebhookIngester
	sigHeader map[provider.ProviderType]string
}

// Signature headers by provider.
var webhookSignatureHeaders = map[provider.ProviderType]string{
	provider.ProviderStripe:      "Stripe-Signature",
	provider.ProviderGoHighLevel: "x-ghl-signature",
}

func NewWebhookHandler(logger *zap.Logger, gateways ...WebhookIngester) *WebhookHandler {
	h := &WebhookHandler{
		logger:    logger,
		gateways:  make(map[provider.ProviderType]WebhookIngester, len(gateways)),
		sigHeader: webhookSignatureHeaders,
	}
	for _, g := range gateways {
		h.gateways[g.Provider()] = g
	}
	return h
}

// HandleStripe handles POST /webhooks/stripe
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	return h.handle(c, provider.ProviderStripe)
}

// HandleGoHighLevel handles POST /webhooks/gohighlevel
func (h *WebhookHandler) HandleGoHighLevel(c echo.Context) error {
	return h.handle(c, provider.ProviderGoHighLevel)
}

func (h *WebhookHandler) handle(c echo.Context, p provider.ProviderType) error {
	gateway, ok := h.gateways[p]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "webhooks are not enabled for " + p.Slug()})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.String("provider", p.Slug()), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get(h.sigHeader[p])
	if err := gateway.HandleWebhook(c.Request().Context(), body, sig); err != nil {
		httpErr := apperrors.ToHTTPError(err)
		if httpErr.Code >= http.StatusInternalServerError {
			apperrors.LogError(h.logger, err, "Webhook processing failed", zap.String("provider", p.Slug()))
		} else {
			h.logger.Warn("Webhook rejected", zap.String("provider", p.Slug()), zap.Error(err))
		}
		return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
