package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	TokenRefreshes  prometheus.Counter
	TokenCacheHits  prometheus.Counter
	WebhookEvents   *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipbridge_requests_total",
				Help: "Total number of inbound requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipbridge_request_duration_seconds",
				Help:    "Inbound request duration in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ProviderErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipbridge_provider_errors_total",
				Help: "Total provider API errors by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		TokenRefreshes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shipbridge_token_refreshes_total",
				Help: "Total provider logins performed by the auth gate",
			},
		),
		TokenCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shipbridge_token_cache_hits_total",
				Help: "Total token requests answered from the cached credential",
			},
		),
		WebhookEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipbridge_webhook_events_total",
				Help: "Total provider webhook events by mapped system status",
			},
			[]string{"status"},
		),
	}
}

// RecordRequest records an inbound request metric.
func (m *Metrics) RecordRequest(route, method, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration)
}

// RecordProviderError records a provider API error metric.
func (m *Metrics) RecordProviderError(operation, kind string) {
	m.ProviderErrors.WithLabelValues(operation, kind).Inc()
}

// RecordWebhookEvent records a processed webhook event.
func (m *Metrics) RecordWebhookEvent(status string) {
	m.WebhookEvents.WithLabelValues(status).Inc()
}

// TokenRefreshed implements shiprocket.AuthEvents.
func (m *Metrics) TokenRefreshed() {
	m.TokenRefreshes.Inc()
}

// TokenCacheHit implements shiprocket.AuthEvents.
func (m *Metrics) TokenCacheHit() {
	m.TokenCacheHits.Inc()
}
