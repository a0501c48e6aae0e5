package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric this module registers.
const Namespace = "ontodia"

// Query outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics contains the provider and transport metrics.
type Metrics struct {
	// Provider metrics
	QueriesTotal       *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
	EnrichmentDegraded *prometheus.CounterVec

	// Transport metrics
	TransportRequests *prometheus.CounterVec
	TransportErrors   *prometheus.CounterVec
	ResponseBytes     *prometheus.HistogramVec
}

// NewMetrics creates the metric vectors. They are not registered anywhere;
// use NewMetricsRegistry for a registry that carries them.
func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "queries_total",
				Help:      "Provider operations by outcome",
			},
			[]string{"operation", "status"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "query_duration_seconds",
				Help:      "Provider operation duration in seconds, composition to normalized result",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		EnrichmentDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "enrichment_degraded_total",
				Help:      "Image enrichment passes that failed and returned elements without images",
			},
			[]string{"source"},
		),

		TransportRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "transport",
				Name:      "requests_total",
				Help:      "SPARQL requests that received an HTTP response",
			},
			[]string{"method", "format", "code"},
		),

		TransportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "transport",
				Name:      "errors_total",
				Help:      "SPARQL requests that failed, by failure kind",
			},
			[]string{"kind"},
		),

		ResponseBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "response_bytes",
				Help:      "Size of successful endpoint responses",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"format"},
		),
	}
}

// collectors lists every vector for registration.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.QueriesTotal,
		m.QueryDuration,
		m.EnrichmentDegraded,
		m.TransportRequests,
		m.TransportErrors,
		m.ResponseBytes,
	}
}

// RecordQuery records one provider operation. A nil receiver is a no-op so
// components can run without metrics.
func (m *Metrics) RecordQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.QueriesTotal.WithLabelValues(operation, status).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEnrichmentDegraded counts an image pass that was dropped.
func (m *Metrics) RecordEnrichmentDegraded(source string) {
	if m == nil {
		return
	}
	m.EnrichmentDegraded.WithLabelValues(source).Inc()
}

// RecordTransportResponse counts a request that got an HTTP status back.
func (m *Metrics) RecordTransportResponse(method, format string, code int) {
	if m == nil {
		return
	}
	m.TransportRequests.WithLabelValues(method, format, strconv.Itoa(code)).Inc()
}

// RecordTransportError counts a failed request by kind.
func (m *Metrics) RecordTransportError(kind string) {
	if m == nil {
		return
	}
	m.TransportErrors.WithLabelValues(kind).Inc()
}

// RecordResponseBytes observes the size of a response body.
func (m *Metrics) RecordResponseBytes(format string, n int) {
	if m == nil {
		return
	}
	m.ResponseBytes.WithLabelValues(format).Observe(float64(n))
}
