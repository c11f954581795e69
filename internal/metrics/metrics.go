// Package metrics exposes Prometheus counters and histograms for engine
// calls. Each Metrics owns its registry so tests and multiple engines in one
// process never collide on registration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	callsTotal      *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	nodesTotal      *prometheus.CounterVec
	linksTotal      *prometheus.CounterVec
	autoFixTotal    *prometheus.CounterVec
	errorCodesTotal *prometheus.CounterVec
}

// New creates and registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpatch_calls_total",
				Help: "Number of engine calls by operation and outcome.",
			},
			[]string{"operation", "success"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pinpatch_call_duration_seconds",
				Help:    "Time spent inside the engine lock per call.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpatch_nodes_total",
				Help: "Number of materialized spec nodes by decision.",
			},
			[]string{"decision"},
		),
		linksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpatch_links_total",
				Help: "Number of processed spec links by result.",
			},
			[]string{"result"},
		),
		autoFixTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpatch_autofix_steps_total",
				Help: "Number of auto-fix and repair steps by code.",
			},
			[]string{"code"},
		),
		errorCodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinpatch_error_codes_total",
				Help: "Number of results carrying each error code.",
			},
			[]string{"code"},
		),
	}
	m.registry.MustRegister(
		m.callsTotal,
		m.callDuration,
		m.nodesTotal,
		m.linksTotal,
		m.autoFixTotal,
		m.errorCodesTotal,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCall records one engine call.
func (m *Metrics) ObserveCall(operation string, success bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "false"
	if success {
		outcome = "true"
	}
	m.callsTotal.WithLabelValues(operation, outcome).Inc()
	m.callDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// Node counts one materialization decision.
func (m *Metrics) Node(decision string) {
	if m == nil {
		return
	}
	m.nodesTotal.WithLabelValues(decision).Inc()
}

// Link counts one processed link; result is "connected", "raw" or "failed".
func (m *Metrics) Link(result string) {
	if m == nil {
		return
	}
	m.linksTotal.WithLabelValues(result).Inc()
}

// Step counts one auto-fix or repair step.
func (m *Metrics) Step(code string) {
	if m == nil {
		return
	}
	m.autoFixTotal.WithLabelValues(code).Inc()
}

// ErrorCode counts one error code on a finished result.
func (m *Metrics) ErrorCode(code string) {
	if m == nil {
		return
	}
	m.errorCodesTotal.WithLabelValues(code).Inc()
}
