package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/project-docs/internal/domain"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	gatherer prometheus.Gatherer

	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	fetchTotal      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
}

// NewMetrics registers collectors on reg. A nil reg uses a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Error responses by error code.",
		}, []string{"method", "route", "code"}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliverable_fetch_total",
			Help: "Deliverable payload fetches by origin and outcome.",
		}, []string{"origin", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deliverable_fetch_duration_seconds",
			Help:    "Deliverable payload fetch latencies in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"origin"}),
	}
	reg.MustRegister(
		m.inFlight,
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.fetchTotal,
		m.fetchDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, route, code).Inc()
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

// RecordError counts an error response by its error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, route, code).Inc()
}

func (m *Metrics) requestStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) requestFinished() {
	if m != nil {
		m.inFlight.Dec()
	}
}

// ObserveFetch records a deliverable fetch attempt.
func (m *Metrics) ObserveFetch(kind domain.OriginKind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(kind.String(), outcome).Inc()
	m.fetchDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}
