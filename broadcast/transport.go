package broadcast

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aebroadcast/datafeed-go/internal/pkg/metrics"
)

// metricsTransport wraps an http.RoundTripper to collect metrics on
// AEBroadcast API calls.
type metricsTransport struct {
	base http.RoundTripper
}

// NewMetricsTransport wraps base with per-endpoint call, latency, and error
// metrics. It is installed automatically on clients built by New; callers
// supplying their own http.Client can install it themselves.
func NewMetricsTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &metricsTransport{base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	endpoint := normalizeEndpoint(req.URL.Path)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	metrics.APICalls.WithLabelValues(req.Method, endpoint, strconv.Itoa(statusCode)).Inc()
	metrics.APIDuration.WithLabelValues(req.Method, endpoint).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		metrics.APIErrors.WithLabelValues(endpoint, classifyError(statusCode, err)).Inc()
	}

	return resp, err
}

// normalizeEndpoint maps API paths onto short, low-cardinality labels.
func normalizeEndpoint(path string) string {
	switch {
	case strings.HasSuffix(path, loginPath):
		return "login"
	case strings.HasSuffix(path, logoutPath):
		return "logout"
	case strings.HasSuffix(path, keepAlivePath):
		return "keepalive"
	case strings.HasSuffix(path, refreshPath):
		return "refresh"
	case strings.HasSuffix(path, quotePath):
		return "quote"
	default:
		return "other"
	}
}

// classifyError categorizes API failures for metrics.
func classifyError(statusCode int, err error) string {
	if err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
			return "timeout"
		case strings.Contains(errStr, "connection refused"):
			return "connection_refused"
		case strings.Contains(errStr, "no such host"):
			return "dns_error"
		case strings.Contains(errStr, "tls"), strings.Contains(errStr, "certificate"):
			return "tls_error"
		default:
			return "transport_error"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
