// ABOUTME: Tests for the pipeline-to-TUI bridge and the workflow run command.
// ABOUTME: Verifies events are wrapped and the run command delivers the result message.

package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/flyout/workflow"
)

func TestEventBridgeWrapsEvents(t *testing.T) {
	var got []tea.Msg
	bridge := NewEventBridge(func(msg tea.Msg) { got = append(got, msg) })

	bridge.HandleEvent(workflow.Event{Type: workflow.EventStepStarted, Step: "buy_flight"})

	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	msg, ok := got[0].(WorkflowEventMsg)
	if !ok {
		t.Fatalf("expected WorkflowEventMsg, got %T", got[0])
	}
	if msg.Event.Step != "buy_flight" {
		t.Errorf("unexpected event %+v", msg.Event)
	}
}

func TestRunWorkflowCmdDeliversResult(t *testing.T) {
	want := &workflow.Result{WorkflowID: "wf_cmd"}
	run := func(ctx context.Context, p workflow.Params) *workflow.Result {
		if p.From != "JFK" {
			t.Errorf("expected params passed through, got %+v", p)
		}
		return want
	}

	cmd := RunWorkflowCmd(context.Background(), run, workflow.Params{From: "JFK"})
	msg := cmd()

	result, ok := msg.(WorkflowResultMsg)
	if !ok {
		t.Fatalf("expected WorkflowResultMsg, got %T", msg)
	}
	if result.Result != want {
		t.Error("expected the run's result delivered")
	}
}
