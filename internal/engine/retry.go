package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// StatusResourceExhausted is the backend status for quota/rate-limit failures.
const StatusResourceExhausted = "RESOURCE_EXHAUSTED"

// RetryPolicy controls the grounded backend retry loop.
// Attempt i (0-based) that hits a rate limit waits 2^(i+1)*Unit plus up to Jitter.
type RetryPolicy struct {
	MaxAttempts int
	Unit        time.Duration
	Jitter      time.Duration
	Notify      func(err error, wait time.Duration) // optional, called before each wait
}

// DefaultRetryPolicy waits 2s, 4s, 8s, 16s between five attempts.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	Unit:        time.Second,
	Jitter:      500 * time.Millisecond,
}

// StatusError is a backend failure carrying an HTTP code and an API status.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("backend error %d %s: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// IsRateLimited reports whether err signals resource exhaustion: an explicit
// RESOURCE_EXHAUSTED status, HTTP 429, or quota wording in the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusTooManyRequests || se.Status == StatusResourceExhausted) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, StatusResourceExhausted) ||
		strings.Contains(strings.ToLower(msg), "quota")
}

// doublingBackOff implements backoff.BackOff with a 2^(n+1) unit schedule.
type doublingBackOff struct {
	policy  RetryPolicy
	attempt int
}

func (b *doublingBackOff) NextBackOff() time.Duration {
	wait := b.policy.Unit << (b.attempt + 1)
	if b.policy.Jitter > 0 {
		wait += time.Duration(rand.Int64N(int64(b.policy.Jitter)))
	}
	b.attempt++
	return wait
}

func (b *doublingBackOff) Reset() { b.attempt = 0 }

// CallWithRetry runs one grounded generation, building a fresh backend client
// for every attempt. Only rate-limit failures are retried; anything else is
// returned at once. After MaxAttempts the last rate-limit error is returned.
func CallWithRetry(ctx context.Context, newBackend BackendFactory, req GroundedRequest, policy RetryPolicy) (*GroundedResponse, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	attempt := 0

	operation := func() (*GroundedResponse, error) {
		attempt++
		if groundedLimiter != nil {
			if err := groundedLimiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
		metrics.GroundedCalls.Add(1)

		backend, err := newBackend(ctx)
		if err != nil {
			metrics.GroundedErrors.Add(1)
			return nil, backoff.Permanent(fmt.Errorf("grounded client: %w", err))
		}
		resp, err := backend.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRateLimited(err) {
			metrics.GroundedErrors.Add(1)
			return nil, backoff.Permanent(err)
		}
		metrics.GroundedRateLimits.Add(1)
		slog.Warn("grounded: rate limited",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", policy.MaxAttempts),
			slog.Any("error", err),
		)
		return nil, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(&doublingBackOff{policy: policy}),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
	}
	if policy.Notify != nil {
		opts = append(opts, backoff.WithNotify(policy.Notify))
	}
	resp, err := backoff.Retry(ctx, operation, opts...)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return resp, err
}
