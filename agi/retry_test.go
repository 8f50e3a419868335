// ABOUTME: Tests for the generic retry wrapper: attempt accounting, last-error reporting, delays.
// ABOUTME: Covers first-try success, success after failures, exhaustion, and context cancellation.

package agi

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Delay: time.Millisecond}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	value, outcome := Do(context.Background(), fastRetry(3), "op", func() (string, error) {
		calls++
		return "ok", nil
	})

	if value != "ok" {
		t.Errorf("expected value %q, got %q", "ok", value)
	}
	if !outcome.Success {
		t.Error("expected success outcome")
	}
	if outcome.Attempts != 1 {
		t.Errorf("expected attempts=1, got %d", outcome.Attempts)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoSucceedsOnAttemptKMakesNoFurtherCalls(t *testing.T) {
	calls := 0
	_, outcome := Do(context.Background(), fastRetry(5), "op", func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	if outcome.Attempts != 3 {
		t.Errorf("expected attempts=3, got %d", outcome.Attempts)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttemptsAndReportsLastError(t *testing.T) {
	calls := 0
	value, outcome := Do(context.Background(), fastRetry(3), "op", func() (string, error) {
		calls++
		return "", errors.New("boom " + string(rune('0'+calls)))
	})

	if value != "" {
		t.Errorf("expected zero value, got %q", value)
	}
	if outcome.Success {
		t.Error("expected failure outcome")
	}
	if outcome.Attempts != 3 {
		t.Errorf("expected attempts=3, got %d", outcome.Attempts)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if outcome.ErrorString() != "boom 3" {
		t.Errorf("expected last error %q, got %q", "boom 3", outcome.ErrorString())
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	policy := fastRetry(4)
	policy.ShouldRetry = func(err error) bool {
		var pe *ParseError
		return !errors.As(err, &pe)
	}

	_, outcome := Do(context.Background(), policy, "op", func() (int, error) {
		calls++
		return 0, &ParseError{ClientError{Message: "bad json"}}
	})

	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
	if outcome.Attempts != 1 {
		t.Errorf("expected attempts=1, got %d", outcome.Attempts)
	}
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{MaxAttempts: 10, Delay: 50 * time.Millisecond}

	_, outcome := Do(ctx, policy, "op", func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})

	if outcome.Success {
		t.Error("expected failure outcome after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation stopped retries, got %d", calls)
	}
}

func TestDoRecordsTimestamps(t *testing.T) {
	_, outcome := Do(context.Background(), fastRetry(1), "op", func() (int, error) {
		return 1, nil
	})

	if outcome.StartedAt.IsZero() || outcome.EndedAt.IsZero() {
		t.Fatal("expected started/ended timestamps to be set")
	}
	if outcome.EndedAt.Before(outcome.StartedAt) {
		t.Error("expected EndedAt >= StartedAt")
	}
}

func TestDelayForAttemptConstantByDefault(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.DelayForAttempt(1) != p.Delay || p.DelayForAttempt(3) != p.Delay {
		t.Errorf("expected constant delay %v, got %v and %v", p.Delay, p.DelayForAttempt(1), p.DelayForAttempt(3))
	}
}

func TestDelayForAttemptGrowsWithFactor(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Delay: 100 * time.Millisecond, Factor: 2.0}
	if got := p.DelayForAttempt(1); got != 100*time.Millisecond {
		t.Errorf("attempt 1: expected 100ms, got %v", got)
	}
	if got := p.DelayForAttempt(2); got != 200*time.Millisecond {
		t.Errorf("attempt 2: expected 200ms, got %v", got)
	}
	if got := p.DelayForAttempt(3); got != 400*time.Millisecond {
		t.Errorf("attempt 3: expected 400ms, got %v", got)
	}
}

func TestDefaultRetryPolicyDefaults(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", p.MaxAttempts)
	}
	if p.Delay != 5*time.Second {
		t.Errorf("expected Delay=5s, got %v", p.Delay)
	}
	if p.Factor != 1.0 {
		t.Errorf("expected Factor=1.0, got %v", p.Factor)
	}
}
