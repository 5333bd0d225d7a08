package broadcast

import (
	"errors"
	"testing"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "login",
			path:     "/Authentication/v1/login",
			expected: "login",
		},
		{
			name:     "logout",
			path:     "/Authentication/v1/logout",
			expected: "logout",
		},
		{
			name:     "keep alive",
			path:     "/Authentication/v1/keep",
			expected: "keepalive",
		},
		{
			name:     "refresh",
			path:     "/Authentication/v1/refresh",
			expected: "refresh",
		},
		{
			name:     "quote request",
			path:     "/stock/v1/quote/request",
			expected: "quote",
		},
		{
			name:     "unknown path",
			path:     "/stock/v1/book/request",
			expected: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeEndpoint(tt.path)
			if result != tt.expected {
				t.Errorf("normalizeEndpoint(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   string
	}{
		{
			name:     "timeout",
			err:      errors.New("context deadline exceeded"),
			expected: "timeout",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
			expected: "connection_refused",
		},
		{
			name:     "dns failure",
			err:      errors.New("dial tcp: lookup svc.aebroadcast.com.br: no such host"),
			expected: "dns_error",
		},
		{
			name:     "tls failure",
			err:      errors.New("x509: certificate signed by unknown authority"),
			expected: "tls_error",
		},
		{
			name:       "unauthorized",
			statusCode: 401,
			expected:   "unauthorized",
		},
		{
			name:       "forbidden",
			statusCode: 403,
			expected:   "forbidden",
		},
		{
			name:       "rate limited",
			statusCode: 429,
			expected:   "rate_limited",
		},
		{
			name:       "server error",
			statusCode: 503,
			expected:   "server_error",
		},
		{
			name:       "client error",
			statusCode: 418,
			expected:   "client_error",
		},
		{
			name:       "success status",
			statusCode: 200,
			expected:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifyError(tt.statusCode, tt.err)
			if result != tt.expected {
				t.Errorf("classifyError(%d, %v) = %q, want %q", tt.statusCode, tt.err, result, tt.expected)
			}
		})
	}
}
