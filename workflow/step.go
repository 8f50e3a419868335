// ABOUTME: Generic step executor: one remote task end-to-end with guaranteed session cleanup.
// ABOUTME: Parameterized by instruction template, field extractor, and derived-input provenance.

package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/2389-research/flyout/agi"
)

// SessionAPI is the slice of the agi client the step executor needs.
// *agi.Client satisfies it; tests substitute fakes.
type SessionAPI interface {
	CreateSession(ctx context.Context) (string, agi.Outcome)
	SendMessage(ctx context.Context, sessionID, message string) agi.Outcome
	WaitForCompletion(ctx context.Context, sessionID string, policy agi.PollPolicy) agi.PollResult
	Results(ctx context.Context, sessionID string) (any, agi.Outcome)
	DeleteSession(ctx context.Context, sessionID string) agi.Outcome
}

// Prior holds the results of already-executed steps, keyed by step name.
// Later steps read it for dependencies (e.g. ride pickup from flight arrival).
type Prior map[string]StepResult

// Result returns the named prior step's result.
func (pr Prior) Result(step string) (StepResult, bool) {
	r, ok := pr[step]
	return r, ok
}

// DerivedInputs collects values a step computed from prior results while
// rendering its instruction, together with where each value came from.
type DerivedInputs struct {
	fields  map[string]any
	sources map[string]Source
}

// NewDerivedInputs returns an empty collector.
func NewDerivedInputs() *DerivedInputs {
	return &DerivedInputs{
		fields:  make(map[string]any),
		sources: make(map[string]Source),
	}
}

// Set records a derived value with its provenance.
func (d *DerivedInputs) Set(name string, value any, source Source) {
	d.fields[name] = value
	d.sources[name] = source
}

// StepDef describes one workflow step. The five concrete steps differ only
// in these three parameters; the executor body is shared.
type StepDef struct {
	// Name is the stable step identifier used in timelines and Prior.
	Name string

	// Title is the human label used in state-log entry names.
	Title string

	// Instruction renders the natural-language task message. It is the
	// step's entire program: it embeds the target endpoint, the inputs, and
	// the exact JSON shape the agent must return. Values computed from
	// prior results are recorded in derived with their provenance.
	Instruction func(p Params, prior Prior, derived *DerivedInputs) string

	// Extract pulls the step's surfaced fields out of a successful agent
	// payload. Nil means surface nothing beyond the derived inputs.
	Extract func(payload map[string]any) map[string]any
}

// StepRunner executes one step definition. AgentRunner drives the remote
// agent; LocalRunner is the no-credentials fallback strategy.
type StepRunner interface {
	RunStep(ctx context.Context, def StepDef, p Params, prior Prior, slog *StateLog) StepResult
}

// AgentRunner runs steps through the remote agent session API.
type AgentRunner struct {
	API  SessionAPI
	Poll agi.PollPolicy
}

// NewAgentRunner creates an agent-backed step runner with the default poll policy.
func NewAgentRunner(api SessionAPI) *AgentRunner {
	return &AgentRunner{API: api, Poll: agi.DefaultPollPolicy()}
}

// RunStep performs one remote task: create session, send instruction, poll
// to completion, fetch and classify results. Once a session exists it is
// cleaned up exactly once on every path, including panics; if creation
// fails, no cleanup happens because no session exists. No error escapes;
// every failure mode becomes a Failure result.
func (r *AgentRunner) RunStep(ctx context.Context, def StepDef, p Params, prior Prior, slog *StateLog) (result StepResult) {
	sessionID, created := r.API.CreateSession(ctx)
	slog.Record(fmt.Sprintf("Create Session (%s)", def.Title), created)
	if !created.Success {
		return Failure(def.Name, fmt.Sprintf("failed to create agent session: %s", created.ErrorString()))
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = Failure(def.Name, fmt.Sprintf("step panic: %v", rec))
		}
	}()
	defer func() {
		cleanup := r.API.DeleteSession(ctx, sessionID)
		slog.Record(fmt.Sprintf("Cleanup Session (%s)", def.Title), cleanup)
		if !cleanup.Success {
			log.Printf("workflow cleanup failed step=%s session=%s error=%s", def.Name, sessionID, cleanup.ErrorString())
		}
	}()

	derived := NewDerivedInputs()
	message := def.Instruction(p, prior, derived)

	sent := r.API.SendMessage(ctx, sessionID, message)
	slog.Record(fmt.Sprintf("Send Instruction (%s)", def.Title), sent)
	if !sent.Success {
		return Failure(def.Name, fmt.Sprintf("failed to send task to agent: %s", sent.ErrorString()))
	}

	poll := r.API.WaitForCompletion(ctx, sessionID, r.Poll)
	slog.RecordPoll(fmt.Sprintf("Wait for Completion (%s)", def.Title), poll)
	switch poll.State {
	case agi.PollFinished:
		// proceed to result retrieval
	case agi.PollError:
		return Failure(def.Name, "agent session ended with error status")
	default:
		return Failure(def.Name, fmt.Sprintf("timed out waiting for agent after %d polls", poll.Attempts))
	}

	content, fetched := r.API.Results(ctx, sessionID)
	slog.Record(fmt.Sprintf("Fetch Results (%s)", def.Title), fetched)
	if !fetched.Success {
		return Failure(def.Name, fmt.Sprintf("failed to fetch agent results: %s", fetched.ErrorString()))
	}

	payload, err := agi.ParsePayload(content)
	if err != nil {
		return Failure(def.Name, fmt.Sprintf("failed to parse agent response: %v", err))
	}

	return classify(def, payload, derived)
}

// classify turns a parsed agent payload into a StepResult. A payload
// reporting success=true becomes Success with the extracted fields surfaced
// (agent provenance) plus the derived inputs; anything else becomes Failure
// with the payload's error field or a generic reason.
func classify(def StepDef, payload map[string]any, derived *DerivedInputs) StepResult {
	success, _ := payload["success"].(bool)
	if !success {
		reason, _ := payload["error"].(string)
		if reason == "" {
			reason = "agent reported failure without error detail"
		}
		failure := Failure(def.Name, reason)
		failure.Details = payload
		return failure
	}

	result := StepResult{Step: def.Name, Success: true, Details: payload}
	if def.Extract != nil {
		for name, value := range def.Extract(payload) {
			result.SetField(name, value, SourceAgent)
		}
	}
	for name, value := range derived.fields {
		result.SetField(name, value, derived.sources[name])
	}
	return result
}
