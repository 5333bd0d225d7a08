package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AEBroadcast API Metrics
var (
	// APICalls tracks upstream API calls by method, endpoint, and status code
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_api_calls_total",
			Help: "Total AEBroadcast API calls by method, endpoint, and status code",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// APIDuration tracks upstream API call latency
	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "broadcast_api_call_duration_ms",
			Help:                            "AEBroadcast API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "endpoint"},
	)

	// APIErrors tracks upstream API errors by endpoint and error type
	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_api_errors_total",
			Help: "Total AEBroadcast API errors by endpoint and error type",
		},
		[]string{"endpoint", "error_type"},
	)

	// TokenRefreshes tracks token refresh attempts by outcome
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_token_refreshes_total",
			Help: "Total token refresh attempts by outcome (ok, failed)",
		},
		[]string{"status"},
	)
)

// Gateway HTTP Metrics
var (
	// HTTPRequests tracks gateway HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_http_requests_total",
			Help: "Total gateway HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration tracks gateway HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "broadcast_http_request_duration_ms",
			Help:                            "Gateway HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests tracks in-flight gateway HTTP requests
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_http_active_requests",
			Help: "Number of in-flight gateway HTTP requests",
		},
	)
)
