package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	bulkItems       *prometheus.CounterVec
	scheduledJobs   prometheus.Gauge
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP requests that ended in a domain error",
		}, []string{"path", "method", "code"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_verifications_total",
			Help: "Total number of committed ticket scans",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_attempts_total",
			Help: "Total number of channel delivery attempts",
		}, []string{"channel", "result"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_bulk_items_total",
			Help: "Total number of processed bulk send items",
		}, []string{"status"}),
		scheduledJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_scheduled_jobs",
			Help: "Number of scheduled notifications waiting to fire",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.errors,
		m.verifications,
		m.attempts,
		m.bulkItems,
		m.scheduledJobs,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordVerification counts a committed scan.
func (m *Metrics) RecordVerification(flagged bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if flagged {
		outcome = "flagged"
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

// RecordAttempt counts one channel attempt.
func (m *Metrics) RecordAttempt(channel string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.attempts.WithLabelValues(channel, result).Inc()
}

// RecordBulkItem counts one processed bulk item by status.
func (m *Metrics) RecordBulkItem(status string) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(status).Inc()
}

// SetScheduledJobs reports the current job registry size.
func (m *Metrics) SetScheduledJobs(n int) {
	if m == nil {
		return
	}
	m.scheduledJobs.Set(float64(n))
}
