package cli

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "zero",
			duration: 0,
			expected: "0 seconds",
		},
		{
			name:     "seconds only",
			duration: 42 * time.Second,
			expected: "42 seconds",
		},
		{
			name:     "one minute",
			duration: time.Minute,
			expected: "1 minute",
		},
		{
			name:     "hours and minutes",
			duration: 2*time.Hour + 45*time.Minute,
			expected: "2 hours and 45 minutes",
		},
		{
			name:     "days hours minutes",
			duration: 49*time.Hour + 5*time.Minute,
			expected: "2 days, 1 hour and 5 minutes",
		},
		{
			name:     "negative duration",
			duration: -90 * time.Minute,
			expected: "1 hour and 30 minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, result, tt.expected)
			}
		})
	}
}
