// ABOUTME: Completion poller: queries session status until a terminal state or the attempt budget runs out.
// ABOUTME: States are waiting, finished, error, exhausted; bound and delay are injectable configuration.

package agi

import (
	"context"
	"log"
	"time"
)

// PollState is the poller's state machine state. Waiting is the initial
// state; the other three are terminal for the poll loop. Only Finished
// permits proceeding to result retrieval.
type PollState string

const (
	PollWaiting   PollState = "waiting"
	PollFinished  PollState = "finished"
	PollError     PollState = "error"
	PollExhausted PollState = "exhausted"
)

// PollPolicy bounds the completion poll loop. The bound and delay live here
// rather than at call sites so every caller shares one explicit policy.
type PollPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPollPolicy returns the standard completion budget: 30 polls, 2s
// apart (a one-minute ceiling per task).
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		MaxAttempts: 30,
		Delay:       2 * time.Second,
	}
}

// PollResult reports how a poll loop ended.
type PollResult struct {
	State    PollState `json:"state"`
	Status   string    `json:"status,omitempty"` // last status observed, if any
	Attempts int       `json:"attempts"`
}

// WaitForCompletion polls the session's status until it observes a terminal
// status or the budget is exhausted. The first terminal status ends the
// loop; no further polls are issued after it. Individual status fetches go
// through the client's retry policy, so a transient fetch failure does not
// consume the whole budget.
func (c *Client) WaitForCompletion(ctx context.Context, sessionID string, policy PollPolicy) PollResult {
	if policy.MaxAttempts < 1 {
		policy = DefaultPollPolicy()
	}

	result := PollResult{State: PollWaiting}
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result.Attempts = attempt

		status, outcome := c.Status(ctx, sessionID)
		if outcome.Success {
			result.Status = status
			switch status {
			case StatusFinished:
				result.State = PollFinished
				return result
			case StatusError:
				result.State = PollError
				return result
			}
		}
		log.Printf("agi poll session=%s attempt=%d/%d status=%s", sessionID, attempt, policy.MaxAttempts, status)

		if attempt < policy.MaxAttempts && !sleepWithContext(ctx, policy.Delay) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	result.State = PollExhausted
	return result
}
