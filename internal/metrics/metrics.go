// Package metrics exposes Prometheus collectors for the API and background jobs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	recordWrites *prometheus.CounterVec
	recomputed   prometheus.Counter
	importRows   *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
}

// New builds and registers the collectors, including Go runtime metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftlog_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shiftlog_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		recordWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftlog_record_writes_total",
			Help: "Production record writes by operation.",
		}, []string{"op"}),
		recomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shiftlog_records_recomputed_total",
			Help: "Records rewritten by batch recomputation.",
		}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftlog_import_rows_total",
			Help: "CSV import rows by outcome.",
		}, []string{"outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftlog_job_runs_total",
			Help: "Scheduled job runs by job/status.",
		}, []string{"job", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.recordWrites,
		m.recomputed,
		m.importRows,
		m.jobRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAPI records one handled request.
func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

// RecordWrite counts a create, update or delete of a production record.
func (m *Metrics) RecordWrite(op string) {
	if m == nil {
		return
	}
	m.recordWrites.WithLabelValues(op).Inc()
}

// Recomputed counts records rewritten by a batch recompute.
func (m *Metrics) Recomputed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recomputed.Add(float64(n))
}

// ImportRows counts imported rows by outcome ("imported", "skipped").
func (m *Metrics) ImportRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(outcome).Add(float64(n))
}

// JobRun counts a scheduled job execution.
func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
}
