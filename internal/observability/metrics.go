package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes request counters and latencies through a dedicated
// prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics registers the collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_http_requests_total",
		Help: "HTTP requests by path, method and status.",
	}, []string{"path", "method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "helpdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by path and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_http_errors_total",
		Help: "Failed HTTP requests by path, method and error code.",
	}, []string{"path", "method", "code"})

	registry.MustRegister(requests, duration, errors)

	return &Metrics{
		registry: registry,
		requests: requests,
		duration: duration,
		errors:   errors,
	}
}

// RecordRequest counts a completed request and observes its latency.
func (m *Metrics) RecordRequest(path, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(path, method).Observe(elapsed.Seconds())
}

// RecordError counts a request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
