// Package metrics provides Prometheus metrics for ReflectAI.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	MutationsTotal *prometheus.CounterVec
	SavesTotal     *prometheus.CounterVec
	SaveDuration   prometheus.Histogram
	RequestsTotal  *prometheus.CounterVec
	ReportsTotal   *prometheus.CounterVec
	EditorsOpen    prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflectai_tree_mutations_total",
				Help: "Tree mutations applied, by operation.",
			},
			[]string{"op"},
		),
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflectai_tree_saves_total",
				Help: "Background tree saves, by result.",
			},
			[]string{"result"},
		),
		SaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reflectai_tree_save_duration_seconds",
				Help:    "Duration of background tree saves.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflectai_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflectai_reports_total",
				Help: "Generated reports, by result.",
			},
			[]string{"result"},
		),
		EditorsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reflectai_editors_open",
				Help: "Trees currently held in memory by the server.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.MutationsTotal,
		m.SavesTotal,
		m.SaveDuration,
		m.RequestsTotal,
		m.ReportsTotal,
		m.EditorsOpen,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (for tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSave records one save attempt. Safe on a nil receiver.
func (m *Metrics) ObserveSave(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SavesTotal.WithLabelValues(result).Inc()
	m.SaveDuration.Observe(d.Seconds())
}

// CountMutation records one applied tree mutation. Safe on a nil receiver.
func (m *Metrics) CountMutation(op string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(op).Inc()
}

// CountReport records one report run. Safe on a nil receiver.
func (m *Metrics) CountReport(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ReportsTotal.WithLabelValues(result).Inc()
}
