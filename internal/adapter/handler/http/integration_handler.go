package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/middleware/auth"
	"github.com/SuarfelG/amber-business-health-monitor/internal/usecase"
	apperrors "github.com/SuarfelG/amber-business-health-monitor/pkg/errors"
)

// IntegrationService is implemented by usecase.IntegrationService.
type IntegrationService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]usecase.IntegrationStatus, error)
	Connect(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, apiKey, accountID string) error
	Disconnect(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType) error
	TriggerSync(ctx context.Context, ownerID uuid.UUID, p provider.ProviderType, backfill bool) error
	AuditLog(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.AuditLog, error)
}

// ConnectRequest is the body of POST /integrations/:provider/connect. AccountID is
// the GoHighLevel location id or an optional Stripe account id.
type ConnectRequest struct {
	APIKey    string `json:"api_key" validate:"required,max=512"`
	AccountID string `json:"account_id" validate:"omitempty,max=255"`
}

// IntegrationHandler handles provider connection endpoints
type IntegrationHandler struct {
	logger    *zap.Logger
	service   IntegrationService
	validator *validator.Validate
}

func NewIntegrationHandler(logger *zap.Logger, service IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// List handles GET /api/v1/integrations
func (h *IntegrationHandler) List(c echo.Context) error {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return err
	}

	statuses, err := h.service.List(c.Request().Context(), ownerID)
	if err != nil {
		return h.fail(c, err, "Failed to list integrations", ownerID)
	}
	return c.JSON(http.StatusOK, echo.Map{"integrations": statuses})
}

// Connect handles POST /api/v1/integrations/:provider/connect
func (h *IntegrationHandler) Connect(c echo.Context) error {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return err
	}
	p, err := providerParam(c)
	if err != nil {
		return err
	}

	var req ConnectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if err := h.service.Connect(c.Request().Context(), ownerID, p, req.APIKey, req.AccountID); err != nil {
		return h.fail(c, err, "Failed to connect integration", ownerID)
	}
	return c.JSON(http.StatusOK, echo.Map{"provider": p, "status": model.IntegrationStatusConnected})
}

// Disconnect handles DELETE /api/v1/integrations/:provider
func (h *IntegrationHandler) Disconnect(c echo.Context) error {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return err
	}
	p, err := providerParam(c)
	if err != nil {
		return err
	}

	if err := h.service.Disconnect(c.Request().Context(), ownerID, p); err != nil {
		return h.fail(c, err, "Failed to disconnect integration", ownerID)
	}
	return c.NoContent(http.StatusNoContent)
}

// Sync handles POST /api/v1/integrations/:provider/sync
func (h *IntegrationHandler) Sync(c echo.Context) error {
	return h.trigger(c, false)
}

// Backfill handles POST /api/v1/integrations/:provider/backfill
func (h *IntegrationHandler) Backfill(c echo.Context) error {
	return h.trigger(c, true)
}

func (h *IntegrationHandler) trigger(c echo.Context, backfill bool) error {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return err
	}
	p, err := providerParam(c)
	if err != nil {
		return err
	}

	if err := h.service.TriggerSync(c.Request().Context(), ownerID, p, backfill); err != nil {
		return h.fail(c, err, "Failed to trigger sync", ownerID)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"provider": p, "backfill": backfill, "status": "started"})
}

// AuditLog handles GET /api/v1/integrations/audit
func (h *IntegrationHandler) AuditLog(c echo.Context) error {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := h.service.AuditLog(c.Request().Context(), ownerID, limit)
	if err != nil {
		return h.fail(c, err, "Failed to list audit log", ownerID)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}

func (h *IntegrationHandler) fail(c echo.Context, err error, msg string, ownerID uuid.UUID) error {
	httpErr := apperrors.ToHTTPError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		apperrors.LogError(h.logger, err, msg, zap.String("owner_id", ownerID.String()))
	}
	return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
}

func providerParam(c echo.Context) (provider.ProviderType, error) {
	p, err := provider.ParseProviderType(c.Param("provider"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return p, nil
}
