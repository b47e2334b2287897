package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for rate limiting
type Metrics struct {
	requestsAllowed  *prometheus.CounterVec
	requestsBlocked  *prometheus.CounterVec
	redisErrors      *prometheus.CounterVec
	redisLatency     *prometheus.HistogramVec
	activeRateLimits prometheus.Gauge
	remainingQuota   *prometheus.HistogramVec
}

// NewMetrics creates rate limiting metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "app"
	}
	factory := promauto.With(reg)

	return &Metrics{
		requestsAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "requests_allowed_total",
				Help:      "Total number of requests allowed by rate limiter",
			},
			[]string{"endpoint"},
		),
		requestsBlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "requests_blocked_total",
				Help:      "Total number of requests blocked by rate limiter",
			},
			[]string{"endpoint"},
		),
		redisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "redis_errors_total",
				Help:      "Total number of Redis errors in rate limiter",
			},
			[]string{"operation", "error_type"},
		),
		redisLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "redis_duration_seconds",
				Help:      "Redis operation latency for rate limiting in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
			},
			[]string{"operation"},
		),
		activeRateLimits: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "active_limits",
				Help:      "Current number of active rate limit entries in Redis",
			},
		),
		remainingQuota: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "remaining_quota_percent",
				Help:      "Distribution of remaining quota percentage for requests",
				Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0-100 in steps of 10
			},
			[]string{"endpoint"},
		),
	}
}
