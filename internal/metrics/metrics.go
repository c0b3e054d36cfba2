package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	BookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created by customers",
		},
	)
	Payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment confirmations, refunds and webhook completions by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Transactional emails by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	IntegrationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_failures_total",
			Help: "Failed calls to third-party services",
		},
		[]string{"integration"},
	)
)

// InitMetrics registers the collectors with the default registry.  Duplicate
// registration (tests, reloads) is logged and ignored.
func InitMetrics() {
	for name, c := range map[string]prometheus.Collector{
		"http_requests_total":           HTTPRequests,
		"http_request_duration_seconds": HTTPDuration,
		"bookings_created_total":        BookingsCreated,
		"payments_total":                Payments,
		"notifications_total":           Notifications,
		"integration_failures_total":    IntegrationFailures,
	} {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Str("metric", name).Msg("failed to register metric")
		}
	}
}

// IntegrationFailed counts a failed third-party call.
func IntegrationFailed(integration string) {
	IntegrationFailures.WithLabelValues(integration).Inc()
}
