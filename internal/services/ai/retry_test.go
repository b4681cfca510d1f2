package ai

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "http 429", err: errors.New("googleapi: Error 429: rate limited"), want: true},
		{name: "resource exhausted", err: errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"), want: true},
		{name: "quota message", err: errors.New("quota exceeded for model"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{name: "nil", err: nil, want: 0},
		{name: "please retry phrasing", err: errors.New("Error 429. Please retry in 32s."), want: 32 * time.Second},
		{name: "retryDelay field", err: errors.New(`details: retryDelay: 17s`), want: 17 * time.Second},
		{name: "fractional seconds", err: errors.New("Please retry in 2.5s"), want: 2500 * time.Millisecond},
		{name: "no delay present", err: errors.New("Error 429"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// Attempt 0 uses the initial backoff untouched.
	assert.Equal(t, DefaultInitialBackoff, cfg.CalculateBackoff(0, 0))

	// Each attempt multiplies, capped at the maximum.
	first := cfg.CalculateBackoff(1, 0)
	assert.Equal(t, time.Duration(float64(DefaultInitialBackoff)*DefaultBackoffMultiplier), first)
	assert.Equal(t, DefaultMaxBackoff, cfg.CalculateBackoff(5, 0))
}

func TestCalculateBackoffUsesAPIDelay(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// API-provided delay plus the safety buffer replaces the default base.
	got := cfg.CalculateBackoff(0, 10*time.Second)
	assert.Equal(t, 15*time.Second, got)
}
