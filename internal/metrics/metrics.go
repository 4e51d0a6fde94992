// Package metrics provides Prometheus metrics for the build pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a run.
type Metrics struct {
	BuildsTotal     *prometheus.CounterVec
	BuildDuration   *prometheus.HistogramVec
	VendorGateTotal *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
	RebuildsTotal   prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bundlerig_builds_total",
				Help: "Total bundler invocations by project and outcome.",
			},
			[]string{"project", "status"},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bundlerig_build_duration_seconds",
				Help:    "Bundler run duration by project.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"project"},
		),
		VendorGateTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bundlerig_vendor_gate_total",
				Help: "Vendor gate passes by project and decision.",
			},
			[]string{"project", "decision"},
		),
		ResolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bundlerig_resolve_duration_seconds",
				Help:    "Configuration resolution duration per invocation.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RebuildsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bundlerig_watch_rebuilds_total",
				Help: "Total rebuilds triggered in watch mode.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.BuildsTotal)
	reg.MustRegister(m.BuildDuration)
	reg.MustRegister(m.VendorGateTotal)
	reg.MustRegister(m.ResolveDuration)
	reg.MustRegister(m.RebuildsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordBuild increments the build counter.
func (m *Metrics) RecordBuild(project, status string) {
	m.BuildsTotal.WithLabelValues(project, status).Inc()
}

// ObserveBuildDuration records one bundler run's duration.
func (m *Metrics) ObserveBuildDuration(project string, seconds float64) {
	m.BuildDuration.WithLabelValues(project).Observe(seconds)
}

// RecordGateDecision increments the vendor gate counter.
func (m *Metrics) RecordGateDecision(project, decision string) {
	m.VendorGateTotal.WithLabelValues(project, decision).Inc()
}

// ObserveResolveDuration records the document-to-configs duration.
func (m *Metrics) ObserveResolveDuration(seconds float64) {
	m.ResolveDuration.Observe(seconds)
}

// RecordRebuild increments the watch rebuild counter.
func (m *Metrics) RecordRebuild() {
	m.RebuildsTotal.Inc()
}
