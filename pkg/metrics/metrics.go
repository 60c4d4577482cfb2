package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway call latency (seconds)
	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Remote gateway call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"operation", "status"},
	)

	// Sources that degraded to an empty contribution during aggregation
	DegradedSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_degraded_sources_total",
			Help: "Aggregation sources that failed and contributed an empty result",
		},
		[]string{"source", "reason"},
	)

	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"method", "path", "status"},
	)

	// User-visible notifications by level
	NotificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "User notifications emitted",
		},
		[]string{"level"},
	)

	// Activity events by routing key and publish result
	ActivityEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_events_total",
			Help: "Activity events published after successful writes",
		},
		[]string{"routing_key", "result"},
	)

	// Slow Postgres queries
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_queries_total",
			Help: "Postgres queries slower than the configured threshold",
		},
		[]string{"command"},
	)
)

func RecordGatewayCall(operation, status string, duration time.Duration) {
	GatewayCallDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func IncrementDegradedSource(source, reason string) {
	DegradedSources.WithLabelValues(source, reason).Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementNotification(level string) {
	NotificationCount.WithLabelValues(level).Inc()
}

func IncrementActivityEvent(routingKey, result string) {
	ActivityEventCount.WithLabelValues(routingKey, result).Inc()
}

func IncrementSlowQuery(command string) {
	SlowQueryCount.WithLabelValues(command).Inc()
}
