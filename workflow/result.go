// ABOUTME: Step and workflow result types, including per-field provenance (agent vs fallback).
// ABOUTME: A WorkflowResult is immutable after a pipeline run returns it.

package workflow

import "time"

// Source tags where a surfaced field's value came from.
type Source string

const (
	// SourceAgent marks values reported by the remote agent's structured result.
	SourceAgent Source = "agent"
	// SourceFallback marks values synthesized locally when the agent-backed
	// path failed or was unavailable.
	SourceFallback Source = "fallback"
)

// StepResult is the outcome of one workflow step. Either Success is true and
// Fields carries the surfaced values, or Success is false and Reason says
// why. Details holds the agent's full payload when one was received.
type StepResult struct {
	Step    string            `json:"step"`
	Success bool              `json:"success"`
	Fields  map[string]any    `json:"fields,omitempty"`
	Sources map[string]Source `json:"sources,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

// Failure builds a failed StepResult. Transport, timeout, remote-task, and
// parse failures all collapse into this one shape; downstream consumers only
// branch on Success.
func Failure(step, reason string) StepResult {
	return StepResult{Step: step, Success: false, Reason: reason}
}

// SetField records a surfaced field with its provenance.
func (r *StepResult) SetField(name string, value any, source Source) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	if r.Sources == nil {
		r.Sources = make(map[string]Source)
	}
	r.Fields[name] = value
	r.Sources[name] = source
}

// StringField returns the named field as a string, or "" when absent or not
// a string.
func (r StepResult) StringField(name string) string {
	if r.Fields == nil {
		return ""
	}
	s, _ := r.Fields[name].(string)
	return s
}

// TimelineEntry pairs a step name with its result, preserving run order.
type TimelineEntry struct {
	Step   string     `json:"step"`
	Result StepResult `json:"result"`
}

// Result is the aggregate outcome of one pipeline run: an ordered timeline
// of every step plus the full state log. It always has HTTP-success shape;
// individual step failures live inside the timeline.
type Result struct {
	WorkflowID string          `json:"workflow_id"`
	Submitted  time.Time       `json:"submitted"`
	Timeline   []TimelineEntry `json:"timeline"`
	StateLog   []StateEntry    `json:"state_log"`
}

// Succeeded counts the successful steps in the timeline.
func (r *Result) Succeeded() int {
	n := 0
	for _, entry := range r.Timeline {
		if entry.Result.Success {
			n++
		}
	}
	return n
}
