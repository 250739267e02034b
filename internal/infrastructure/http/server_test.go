package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	handlers "github.com/SuarfelG/amber-business-health-monitor/internal/adapter/handler/http"
	"github.com/SuarfelG/amber-business-health-monitor/internal/config"
)

func newTestServer() *Server {
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "amber", Version: "test"},
		JWT:     config.JWTConfig{Secret: "test-secret"},
	}
	log := zap.NewNop()
	return NewServer(cfg, log, nil, Handlers{
		Webhooks:     handlers.NewWebhookHandler(log),
		Integrations: handlers.NewIntegrationHandler(log, nil),
		Metrics:      handlers.NewMetricsHandler(log, nil, nil),
	})
}

func TestServer_PublicRoutes(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "amber_")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enabled")
}

func TestServer_APIRequiresToken(t *testing.T) {
	s := newTestServer()

	for _, target := range []string{"/api/v1/integrations", "/api/v1/metrics/revenue", "/api/v1/health-score"} {
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}
