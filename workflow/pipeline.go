// ABOUTME: Workflow pipeline: runs an ordered list of steps strictly in sequence with partial-failure tolerance.
// ABOUTME: Emits lifecycle events and aggregates a timeline plus the full state log into one Result.

package workflow

import (
	"context"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the kind of pipeline lifecycle event.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow.started"
	EventStepStarted       EventType = "step.started"
	EventStepCompleted     EventType = "step.completed"
	EventStepFailed        EventType = "step.failed"
	EventWorkflowCompleted EventType = "workflow.completed"
)

// Event is a lifecycle event emitted during a pipeline run.
type Event struct {
	Type      EventType
	Step      string
	Result    *StepResult
	Timestamp time.Time
}

// Pipeline runs an ordered list of step definitions through a StepRunner.
// Execution is strictly sequential; a step's failure never halts the steps
// after it, which run with fallback inputs where a dependency is missing.
type Pipeline struct {
	Runner       StepRunner
	Steps        []StepDef
	EventHandler func(Event)
}

// NewPipeline creates a pipeline over the given runner and steps.
func NewPipeline(runner StepRunner, steps []StepDef) *Pipeline {
	return &Pipeline{Runner: runner, Steps: steps}
}

// Run executes every step in order and returns the aggregate Result. All
// run state (prior results, state log, timeline) is scoped to this call;
// nothing is shared across runs.
func (pl *Pipeline) Run(ctx context.Context, p Params) *Result {
	result := &Result{
		WorkflowID: "wf_" + ulid.Make().String(),
		Submitted:  time.Now().UTC(),
	}
	slog := NewStateLog()
	prior := make(Prior, len(pl.Steps))

	pl.emit(Event{Type: EventWorkflowStarted})
	log.Printf("workflow started id=%s steps=%d", result.WorkflowID, len(pl.Steps))

	for _, def := range pl.Steps {
		pl.emit(Event{Type: EventStepStarted, Step: def.Name})

		stepResult := pl.Runner.RunStep(ctx, def, p, prior, slog)

		prior[def.Name] = stepResult
		result.Timeline = append(result.Timeline, TimelineEntry{Step: def.Name, Result: stepResult})

		if stepResult.Success {
			pl.emit(Event{Type: EventStepCompleted, Step: def.Name, Result: &stepResult})
			log.Printf("workflow step ok id=%s step=%s", result.WorkflowID, def.Name)
		} else {
			pl.emit(Event{Type: EventStepFailed, Step: def.Name, Result: &stepResult})
			log.Printf("workflow step failed id=%s step=%s reason=%q", result.WorkflowID, def.Name, stepResult.Reason)
		}
	}

	result.StateLog = slog.Entries()
	pl.emit(Event{Type: EventWorkflowCompleted})
	log.Printf("workflow completed id=%s succeeded=%d/%d", result.WorkflowID, result.Succeeded(), len(result.Timeline))
	return result
}

// emit sends an event to the handler, stamping the time.
func (pl *Pipeline) emit(evt Event) {
	if pl.EventHandler == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	pl.EventHandler(evt)
}
