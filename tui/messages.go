// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps domain events for the tea.Msg interface (which is interface{}).

package tui

import "github.com/2389-research/flyout/workflow"

// WorkflowEventMsg wraps a workflow.Event for the Bubble Tea message loop.
type WorkflowEventMsg struct {
	Event workflow.Event
}

// WorkflowResultMsg signals that the workflow has finished executing.
type WorkflowResultMsg struct {
	Result *workflow.Result
}
