package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxi-insights-api/analytics"
	"taxi-insights-api/config"
	"taxi-insights-api/middleware"
	"taxi-insights-api/models"
	"taxi-insights-api/services"
	"taxi-insights-api/store"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testRouter(t *testing.T, rps float64, burst int) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test", QueryTimeout: time.Second, DashboardConcurrency: 2},
		CORS:   config.CORSConfig{AllowedOrigins: "*"},
	}
	pickup := time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
	backend := store.NewMemory([]models.Trip{{
		PickupAt: pickup, DropoffAt: pickup.Add(15 * time.Minute),
		Distance: 3, TotalAmount: 21, PickupZone: 132, DropoffZone: 236,
	}})
	limiter := middleware.NewRateLimiter(rps, burst)
	t.Cleanup(limiter.Stop)

	return newRouter(cfg, analytics.NewService(backend, nil),
		services.NewAlertBusWithClient(nil, "taxi:alerts", nil), limiter, zap.NewNop())
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := testRouter(t, 100, 100)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "UP")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taxi_insights_http_requests_total")
}

func TestRouterRateLimitsAPIOnly(t *testing.T) {
	r := testRouter(t, 0.001, 1)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/top-zones", nil))
		assert.Equal(t, want, w.Code, "request %d", i)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
