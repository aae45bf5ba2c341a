package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Collector holds all Prometheus metrics for the application.
// Each collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	Documents          prometheus.Gauge
	TranslationMemory  prometheus.Gauge
	DriftDetections    *prometheus.CounterVec
	NotificationsTotal prometheus.Counter
}

// NewCollector creates a metrics collector with the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ProviderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Outbound provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Outbound provider call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		Documents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Documents currently held by the store",
			},
		),
		TranslationMemory: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "translation_memory_entries",
				Help:      "Entries in the translation memory",
			},
		),
		DriftDetections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drift_detections_total",
				Help:      "Files classified by drift detection",
			},
			[]string{"drift_type"},
		),
		NotificationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "change_notifications_total",
				Help:      "Change notifications created",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ProviderCalls,
		c.ProviderDuration,
		c.Documents,
		c.TranslationMemory,
		c.DriftDetections,
		c.NotificationsTotal,
	)
	return c
}

// ObserveProvider records one outbound call.
func (c *Collector) ObserveProvider(provider, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.ProviderCalls.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeFailure {
		c.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// SetDocuments updates the document gauge.
func (c *Collector) SetDocuments(n int) {
	if c == nil {
		return
	}
	c.Documents.Set(float64(n))
}

// SetTranslationMemory updates the translation memory gauge.
func (c *Collector) SetTranslationMemory(n int) {
	if c == nil {
		return
	}
	c.TranslationMemory.Set(float64(n))
}

// CountDrift increments the drift counter for a classification.
func (c *Collector) CountDrift(driftType string) {
	if c == nil {
		return
	}
	c.DriftDetections.WithLabelValues(driftType).Inc()
}

// CountNotification increments the notification counter.
func (c *Collector) CountNotification() {
	if c == nil {
		return
	}
	c.NotificationsTotal.Inc()
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
