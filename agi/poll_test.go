// ABOUTME: Tests for the completion poller state machine against a scripted status endpoint.
// ABOUTME: Covers terminal transitions, no-polls-after-terminal, and budget exhaustion.

package agi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// statusScript serves a fixed sequence of status values, then repeats the last.
func statusScript(t *testing.T, statuses ...string) (*Client, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/status") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		idx := calls
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		calls++
		_ = json.NewEncoder(w).Encode(map[string]string{"status": statuses[idx]})
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "k",
		Retry:   RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond},
	})
	return client, &calls
}

func fastPoll(attempts int) PollPolicy {
	return PollPolicy{MaxAttempts: attempts, Delay: time.Millisecond}
}

func TestWaitForCompletionFinishes(t *testing.T) {
	client, calls := statusScript(t, StatusQueued, StatusRunning, StatusFinished)

	result := client.WaitForCompletion(context.Background(), "s", fastPoll(10))

	if result.State != PollFinished {
		t.Errorf("expected finished, got %q", result.State)
	}
	if result.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", result.Attempts)
	}
	if *calls != 3 {
		t.Errorf("expected no polls after terminal status, got %d calls", *calls)
	}
}

func TestWaitForCompletionStopsOnErrorStatus(t *testing.T) {
	client, calls := statusScript(t, StatusRunning, StatusError)

	result := client.WaitForCompletion(context.Background(), "s", fastPoll(10))

	if result.State != PollError {
		t.Errorf("expected error state, got %q", result.State)
	}
	if *calls != 2 {
		t.Errorf("expected polling to stop at first terminal status, got %d calls", *calls)
	}
	if result.Status != StatusError {
		t.Errorf("expected last status %q, got %q", StatusError, result.Status)
	}
}

func TestWaitForCompletionExhaustsBudget(t *testing.T) {
	client, calls := statusScript(t, StatusRunning)

	result := client.WaitForCompletion(context.Background(), "s", fastPoll(4))

	if result.State != PollExhausted {
		t.Errorf("expected exhausted, got %q", result.State)
	}
	if result.Attempts != 4 || *calls != 4 {
		t.Errorf("expected exactly 4 polls, got attempts=%d calls=%d", result.Attempts, *calls)
	}
}

func TestWaitForCompletionToleratesFetchFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": StatusFinished})
	}))
	defer server.Close()
	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "k",
		Retry:   RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond},
	})

	result := client.WaitForCompletion(context.Background(), "s", fastPoll(5))

	if result.State != PollFinished {
		t.Errorf("expected finished after transient fetch failure, got %q", result.State)
	}
}

func TestDefaultPollPolicy(t *testing.T) {
	p := DefaultPollPolicy()
	if p.MaxAttempts != 30 {
		t.Errorf("expected MaxAttempts=30, got %d", p.MaxAttempts)
	}
	if p.Delay != 2*time.Second {
		t.Errorf("expected Delay=2s, got %v", p.Delay)
	}
}
