package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.BuildsTotal)
	assert.NotNil(t, m.BuildDuration)
	assert.NotNil(t, m.VendorGateTotal)
	assert.NotNil(t, m.ResolveDuration)
	assert.NotNil(t, m.RebuildsTotal)
}

func TestMetrics_RecordBuild(t *testing.T) {
	m := New()
	m.RecordBuild("shop", "succeeded")
	m.RecordBuild("shop", "succeeded")
	m.RecordBuild("admin", "failed")

	// Verify via handler
	body := getMetricsBody(t, m)
	assert.Contains(t, body, `bundlerig_builds_total{project="shop",status="succeeded"} 2`)
	assert.Contains(t, body, `bundlerig_builds_total{project="admin",status="failed"} 1`)
}

func TestMetrics_RecordGateDecision(t *testing.T) {
	m := New()
	m.RecordGateDecision("shop", "skip")
	m.RecordGateDecision("shop", "built")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `bundlerig_vendor_gate_total{decision="skip",project="shop"} 1`)
	assert.Contains(t, body, `bundlerig_vendor_gate_total{decision="built",project="shop"} 1`)
}

func TestMetrics_ObserveDurations(t *testing.T) {
	m := New()
	m.ObserveBuildDuration("shop", 1.5)
	m.ObserveResolveDuration(0.02)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "bundlerig_build_duration_seconds")
	assert.Contains(t, body, "bundlerig_resolve_duration_seconds")
}

func TestMetrics_RecordRebuild(t *testing.T) {
	m := New()
	m.RecordRebuild()

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "bundlerig_watch_rebuilds_total 1")
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	handler := m.Handler()
	assert.NotNil(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	return strings.TrimSpace(string(body))
}
