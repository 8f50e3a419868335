// ABOUTME: Bridge connecting the workflow pipeline to the Bubble Tea message loop.
// ABOUTME: Provides EventBridge for event injection and a tea.Cmd factory for workflow execution.

package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/flyout/workflow"
)

// EventBridge wraps a tea.Program's Send method for injecting pipeline events
// into the Bubble Tea message loop.
type EventBridge struct {
	send func(msg tea.Msg)
}

// NewEventBridge creates an EventBridge that sends messages via the given
// function. Typically called with program.Send as the argument.
func NewEventBridge(send func(msg tea.Msg)) *EventBridge {
	return &EventBridge{send: send}
}

// HandleEvent implements the workflow.Pipeline.EventHandler signature. It
// wraps the event in a WorkflowEventMsg and sends it to the TUI.
func (b *EventBridge) HandleEvent(evt workflow.Event) {
	b.send(WorkflowEventMsg{Event: evt})
}

// RunWorkflowCmd returns a tea.Cmd that runs the workflow via the given
// function. When the run completes it sends a WorkflowResultMsg. The context
// allows cancellation when the user quits the TUI.
func RunWorkflowCmd(ctx context.Context, run func(context.Context, workflow.Params) *workflow.Result, p workflow.Params) tea.Cmd {
	return func() tea.Msg {
		return WorkflowResultMsg{Result: run(ctx, p)}
	}
}
