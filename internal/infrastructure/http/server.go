package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"gorm.io/gorm"

	handlers "github.com/SuarfelG/amber-business-health-monitor/internal/adapter/handler/http"
	"github.com/SuarfelG/amber-business-health-monitor/internal/config"
	"github.com/SuarfelG/amber-business-health-monitor/internal/middleware/auth"
	"github.com/SuarfelG/amber-business-health-monitor/pkg/logger"
)

// Handlers groups the HTTP handlers the server routes to.
type Handlers struct {
	Webhooks     *handlers.WebhookHandler
	Integrations *handlers.IntegrationHandler
	Metrics      *handlers.MetricsHandler
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	db       *gorm.DB
	handlers Handlers
	// registry holds the HTTP request metrics of this server. Domain metrics
	// live on the default registry.
	registry *prometheus.Registry
}

func NewServer(cfg *config.Config, log *zap.Logger, db *gorm.DB, h Handlers) *Server {
	registry := prometheus.NewRegistry()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logger.WithEchoLogger(e, log)
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(cfg.Service.Name))
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "amber",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	if len(cfg.Server.HTTP.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.HTTP.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}))
	}

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		db:       db,
		handlers: h,
		registry: registry,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, s.registry},
	}))

	webhooks := s.echo.Group("/webhooks", middleware.BodyLimit("1M"))
	webhooks.POST("/stripe", s.handlers.Webhooks.HandleStripe)
	webhooks.POST("/gohighlevel", s.handlers.Webhooks.HandleGoHighLevel)

	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}))

	integrations := v1.Group("/integrations")
	integrations.GET("", s.handlers.Integrations.List)
	integrations.GET("/audit", s.handlers.Integrations.AuditLog)
	integrations.POST("/:provider/connect", s.handlers.Integrations.Connect)
	integrations.DELETE("/:provider", s.handlers.Integrations.Disconnect)
	integrations.POST("/:provider/sync", s.handlers.Integrations.Sync)
	integrations.POST("/:provider/backfill", s.handlers.Integrations.Backfill)

	metrics := v1.Group("/metrics")
	metrics.GET("/revenue", s.handlers.Metrics.Revenue)
	metrics.GET("/crm", s.handlers.Metrics.CRM)
	metrics.POST("/recalculate", s.handlers.Metrics.Recalculate)

	v1.GET("/health-score", s.handlers.Metrics.HealthScore)
}

// health reports liveness plus database reachability.
func (s *Server) health(c echo.Context) error {
	status := http.StatusOK
	body := echo.Map{
		"status":  "healthy",
		"service": s.config.Service.Name,
		"version": s.config.Service.Version,
	}

	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			s.logger.Warn("Health check database ping failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
	}
	return c.JSON(status, body)
}
