package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"learnhub/api/internal/config"
	"learnhub/api/internal/handlers"
	"learnhub/api/internal/metrics"
)

func TestServerExposesMetricsAndRequestIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{Environment: "test"}
	h := handlers.NewHandlerSet(handlers.Deps{Log: zerolog.Nop(), Config: cfg})
	srv := NewHTTPServer(cfg, zerolog.Nop(), metrics.New(), h)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `learnhub_http_requests_total{method="GET",route="/api/v1/healthz",status="200"} 1`)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{Environment: "test"}
	h := handlers.NewHandlerSet(handlers.Deps{Log: zerolog.Nop(), Config: cfg})
	srv := NewHTTPServer(cfg, zerolog.Nop(), nil, h)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
