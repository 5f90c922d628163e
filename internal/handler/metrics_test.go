package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/subtrackr/subtrackr/internal/metrics"
)

func TestMetricsHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.MustNewPrometheus(reg)
	rec.IncScanRun(metrics.RunComplete)

	h := NewMetricsHandler(reg)
	resp := httptest.NewRecorder()
	h.Metrics(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "subtrackr_scan_runs_total") {
		t.Errorf("expected scan run counter in output:\n%s", resp.Body.String())
	}
}

func TestMetricsHandler_NoRegistry(t *testing.T) {
	h := NewMetricsHandler(nil)
	resp := httptest.NewRecorder()
	h.Metrics(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", resp.Code)
	}
}
