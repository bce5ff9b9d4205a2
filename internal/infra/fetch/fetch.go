// Package fetch provides the resilient call wrapper shared by every
// source adapter call: a hard per-attempt timeout, bounded retries
// with exponential backoff, and typed failure classification. Retry
// policy lives only here so it is configured once, not re-implemented
// per adapter.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTimeout means the attempt exceeded its deadline.
	KindTimeout Kind = iota
	// KindHTTPStatus means the upstream answered with an error status.
	KindHTTPStatus
	// KindNetwork covers transport failures: refused connections, DNS,
	// resets, cancelled callers.
	KindNetwork
	// KindMalformed means the upstream answered 2xx with a payload
	// that could not be decoded.
	KindMalformed
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the typed outcome of an exhausted fetch. It is the only
// error shape Do ever returns.
type Error struct {
	Kind   Kind
	Status int // set for KindHTTPStatus
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch failed: upstream status %d", e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("fetch failed (%s)", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError builds an Error for an upstream HTTP error status.
func StatusError(code int) *Error {
	return &Error{Kind: KindHTTPStatus, Status: code}
}

// MalformedError builds an Error for an undecodable payload.
func MalformedError(err error) *Error {
	return &Error{Kind: KindMalformed, Err: err}
}

// Classify converts an arbitrary adapter error into a typed Error.
// Already-typed errors pass through; deadline errors become Timeout;
// everything else is Network.
func Classify(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}

// Policy holds the retry and timeout settings for wrapped calls.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so
	// MaxRetries+1 attempts run in total.
	MaxRetries int

	// BaseDelay is the wait before the first retry; the wait doubles
	// on every subsequent retry.
	BaseDelay time.Duration

	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// Do runs op with the policy's timeout and retry schedule. op receives
// a context carrying the per-attempt deadline and must honor it so a
// timed-out attempt actually releases its underlying I/O.
//
// On success Do returns op's value. On exhaustion it returns the last
// attempt's failure as a typed *Error; it never panics and never
// returns an unclassified error.
func Do[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr *Error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.BaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, Classify(ctx.Err())
			}
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		}

		value, err := op(attemptCtx)
		cancel()

		if err == nil {
			return value, nil
		}
		lastErr = Classify(err)

		// The caller's own context ending is not retryable.
		if ctx.Err() != nil {
			return zero, lastErr
		}
	}

	return zero, lastErr
}
