package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/entity"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/health"
	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/model"
	"github.com/SuarfelG/amber-business-health-monitor/internal/middleware/auth"
	apperrors "github.com/SuarfelG/amber-business-health-monitor/pkg/errors"
)

// MetricsReader is implemented by usecase.MetricsService.
type MetricsReader interface {
	RevenueMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.RevenueMetric, error)
	CRMMetrics(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType, limit int) ([]model.CRMMetric, error)
	Recalculate(ownerID uuid.UUID)
}

// HealthScorer is implemented by usecase.HealthService.
type HealthScorer interface {
	GetHealthScore(ctx context.Context, ownerID uuid.UUID, periodType entity.PeriodType) (*health.Result, error)
}

// MetricsHandler serves aggregate buckets and the health score
type MetricsHandler struct {
	logger  *zap.Logger
	metrics MetricsReader
	health  HealthScorer
}

func NewMetricsHandler(logger *zap.Logger, metrics MetricsReader, health HealthScorer) *MetricsHandler {
	return &MetricsHandler{
		logger:  logger,
		metrics: metrics,
		health:  health,
	}
}

type metricsQuery struct {
	ownerID    uuid.UUID
	periodType entity.PeriodType
	limit      int
}

func (h *MetricsHandler) parseQuery(c echo.Context) (*metricsQuery, error) {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return nil, err
	}
	periodType, err := entity.ParsePeriodType(c.QueryParam("period"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}
	return &metricsQuery{ownerID: ownerID, periodType: periodType, limit: limit}, nil
}

// Revenue handles GET /api/v1/metrics/revenue
func (h *MetricsHandler) Revenue(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return err
	}
	rows, err := h.metrics.RevenueMetrics(c.Request().Context(), q.ownerID, q.periodType, q.limit)
	if err != nil {
		return h.fail(c, err, "Failed to list revenue metrics", q.ownerID)
	}
	return c.JSON(http.StatusOK, echo.Map{"period": q.periodType, "metrics": rows})
}

// CRM handles GET /api/v1/metrics/crm
func (h *MetricsHandler) CRM(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return err
	}
	rows, err := h.metrics.CRMMetrics(c.Request().Context(), q.ownerID, q.periodType, q.limit)
	if err != nil {
		return h.fail(c, err, "Failed to list crm metrics", q.ownerID)
	}
	return c.JSON(http.StatusOK, echo.Map{"period": q.periodType, "metrics": rows})
}

// Recalculate handles POST /api/v1/metrics/recalculate
func (h *MetricsHandler) Recalculate(c echo.Context) error {
	ownerID, err := auth.GetOwnerID(c)
	if err != nil {
		return err
	}
	h.metrics.Recalculate(ownerID)
	return c.JSON(http.StatusAccepted, echo.Map{"status": "started"})
}

// HealthScore handles GET /api/v1/health-score
func (h *MetricsHandler) HealthScore(c echo.Context) error {
	q, err := h.parseQuery(c)
	if err != nil {
		return err
	}
	result, err := h.health.GetHealthScore(c.Request().Context(), q.ownerID, q.periodType)
	if err != nil {
		return h.fail(c, err, "Failed to compute health score", q.ownerID)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) fail(c echo.Context, err error, msg string, ownerID uuid.UUID) error {
	apperrors.LogError(h.logger, err, msg, zap.String("owner_id", ownerID.String()))
	httpErr := apperrors.ToHTTPError(err)
	return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
}
