package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(checks map[string]HealthCheck) (*Server, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	s := NewServer(&config.Config{}, reg, checks, logger.NewNopLogger())
	s.MapHandlers(s.echo)
	return s, reg
}

func TestHealthOK(t *testing.T) {
	s, _ := newTestServer(map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"status": "OK", "redis": "OK"}, body)
}

func TestHealthDegraded(t *testing.T) {
	s, _ := newTestServer(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
}

func TestMetricsEndpoint(t *testing.T) {
	s, reg := newTestServer(nil)
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "episode_jobs_probe_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "episode_jobs_probe_total 1"))
}
