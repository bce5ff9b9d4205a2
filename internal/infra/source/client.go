// Package source provides shared HTTP client utilities for the
// upstream catalog clients.
package source

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ClientConfig holds configuration for an upstream catalog client.
type ClientConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
	RateLimit RateLimitConfig
	CB        CBConfig
}

// RateLimitConfig bounds the request rate against one upstream.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// NewRestyClient creates a Resty HTTP client for an upstream.
//
// The client carries no retry configuration on purpose: retries and
// backoff are owned by the fetch wrapper so the policy exists in
// exactly one place and a degraded upstream cannot trigger nested
// retry storms.
func NewRestyClient(cfg ClientConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
}

// NewCircuitBreaker creates a circuit breaker for an upstream.
func NewCircuitBreaker[T any](name string, cfg CBConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}

// NewLimiter creates a request rate limiter for an upstream. A zero
// PerMinute disables limiting.
func NewLimiter(cfg RateLimitConfig) *rate.Limiter {
	if cfg.PerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), burst)
}
