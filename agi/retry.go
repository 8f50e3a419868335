// ABOUTME: Generic retry wrapper for AGI session primitives with a constant (optionally growing) delay.
// ABOUTME: Returns the operation value plus an Outcome carrying success, attempt count, and timing.

package agi

import (
	"context"
	"log"
	"math"
	"time"
)

// RetryPolicy controls how many times a session primitive is attempted and
// how long to wait between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts (minimum 1).
	MaxAttempts int

	// Delay is the wait between attempts.
	Delay time.Duration

	// Factor controls delay growth per attempt. The default of 1.0 keeps
	// the delay constant, matching the documented contract of the session
	// primitives. Values above 1.0 give exponential backoff.
	Factor float64

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil means retry on any non-nil error.
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 5s constant delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
		Factor:      1.0,
		ShouldRetry: DefaultShouldRetry,
	}
}

// DefaultShouldRetry retries on any non-nil error.
func DefaultShouldRetry(err error) bool {
	return err != nil
}

// DelayForAttempt computes the wait after a given attempt number (1-indexed).
// With Factor <= 1.0 the delay is constant.
func (p RetryPolicy) DelayForAttempt(attempt int) time.Duration {
	if p.Factor <= 1.0 || attempt <= 1 {
		return p.Delay
	}
	return time.Duration(float64(p.Delay) * math.Pow(p.Factor, float64(attempt-1)))
}

// Outcome records how a retried operation went. Immutable once returned;
// callers append it to the workflow state log.
type Outcome struct {
	Success   bool      `json:"success"`
	Attempts  int       `json:"attempts"`
	Err       error     `json:"-"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// ErrorString returns the recorded error message, or "" on success.
func (o Outcome) ErrorString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Do invokes fn up to policy.MaxAttempts times, sleeping between attempts.
// On the first success it returns the value and an Outcome with the attempt
// count; once attempts are exhausted it returns the zero value and a failed
// Outcome carrying the last error. Each failed attempt is logged under name.
func Do[T any](ctx context.Context, policy RetryPolicy, name string, fn func() (T, error)) (T, Outcome) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	shouldRetry := policy.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	outcome := Outcome{StartedAt: time.Now().UTC()}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		outcome.Attempts = attempt

		value, err := fn()
		if err == nil {
			outcome.Success = true
			outcome.EndedAt = time.Now().UTC()
			return value, outcome
		}

		lastErr = err
		log.Printf("agi retry op=%s attempt=%d/%d error=%v", name, attempt, policy.MaxAttempts, err)

		if attempt == policy.MaxAttempts || !shouldRetry(err) {
			break
		}
		if !sleepWithContext(ctx, policy.DelayForAttempt(attempt)) {
			break
		}
	}

	outcome.Err = lastErr
	outcome.EndedAt = time.Now().UTC()
	return zero, outcome
}

// sleepWithContext sleeps for d, returning false if the context was
// cancelled before the full duration elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
