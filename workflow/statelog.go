// ABOUTME: Append-only diagnostic log of every orchestration primitive invoked during a workflow run.
// ABOUTME: Entries record name, success, attempts, and error; the log never drives control decisions.

package workflow

import (
	"github.com/2389-research/flyout/agi"
)

// StateEntry is one record in the state log. Extra carries
// primitive-specific detail such as the poller's final state.
type StateEntry struct {
	Step     string         `json:"step"`
	Success  bool           `json:"success"`
	Attempts int            `json:"attempts"`
	Error    string         `json:"error,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// StateLog collects StateEntry values in invocation order. It has exactly
// one writer at a time (the currently executing step), so no locking.
type StateLog struct {
	entries []StateEntry
}

// NewStateLog returns an empty state log scoped to one workflow run.
func NewStateLog() *StateLog {
	return &StateLog{}
}

// Append adds an entry to the log.
func (l *StateLog) Append(entry StateEntry) {
	l.entries = append(l.entries, entry)
}

// Record appends an entry built from a retry Outcome.
func (l *StateLog) Record(step string, o agi.Outcome) {
	l.Append(StateEntry{
		Step:     step,
		Success:  o.Success,
		Attempts: o.Attempts,
		Error:    o.ErrorString(),
	})
}

// RecordPoll appends an entry built from a completion poll result.
func (l *StateLog) RecordPoll(step string, pr agi.PollResult) {
	l.Append(StateEntry{
		Step:     step,
		Success:  pr.State == agi.PollFinished,
		Attempts: pr.Attempts,
		Extra: map[string]any{
			"state":  string(pr.State),
			"status": pr.Status,
		},
	})
}

// Entries returns a copy of the log in append order.
func (l *StateLog) Entries() []StateEntry {
	out := make([]StateEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *StateLog) Len() int {
	return len(l.entries)
}
