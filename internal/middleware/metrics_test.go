package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/payments/{gateway}/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/stripe/pi_123/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/payments/{gateway}/{id}/status", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)

	var foundDuration bool
	for _, mf := range families {
		if mf.GetName() == "test_http_request_duration_seconds" {
			foundDuration = true
		}
	}
	assert.True(t, foundDuration, "http_request_duration_seconds should be recorded")
}

func TestMetrics_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		label      string
	}{
		{"200 OK", http.StatusOK, "200"},
		{"201 Created", http.StatusCreated, "201"},
		{"402 Payment Required", http.StatusPaymentRequired, "402"},
		{"503 Service Unavailable", http.StatusServiceUnavailable, "503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetrics("test", prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(Metrics(metrics))
			r.Post("/pay", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pay", nil))

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, 1.0, promtest.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/pay", tt.label)))
		})
	}
}

func TestMetrics_UnmatchedRouteIsCollapsed(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	handler := Metrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, path := range []string{"/a", "/b", "/c/d"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 3.0, promtest.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
}

func TestStatusWriter(t *testing.T) {
	w := httptest.NewRecorder()
	sw := wrapStatus(w)

	assert.Equal(t, http.StatusOK, sw.statusCode)

	sw.WriteHeader(http.StatusCreated)
	n, err := sw.Write([]byte("test"))
	require.NoError(t, err)

	assert.Equal(t, 4, n)
	assert.Equal(t, 4, sw.bytes)
	assert.Equal(t, http.StatusCreated, sw.statusCode)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Same(t, sw, wrapStatus(sw))
	assert.Equal(t, w, sw.Unwrap())
}
