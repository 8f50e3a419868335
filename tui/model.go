// ABOUTME: Bubble Tea model for the workflow progress view used by `flyout run`.
// ABOUTME: Shows per-step status with a spinner, a log tail, and a summary on completion.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/flyout/workflow"
)

// StepStatus is the display state of one workflow step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepCompleted
	StepFailed
)

// maxLogLines bounds the log tail shown under the step list.
const maxLogLines = 6

type stepRow struct {
	name   string
	status StepStatus
	reason string
}

// Model is the Bubble Tea model for a single workflow run.
type Model struct {
	steps   []stepRow
	spinner spinner.Model
	logs    []string
	result  *workflow.Result
	done    bool
}

// NewModel creates a Model over the named steps, all pending.
func NewModel(stepNames []string) Model {
	steps := make([]stepRow, len(stepNames))
	for i, name := range stepNames {
		steps[i] = stepRow{name: name, status: StepPending}
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = RunningStyle
	return Model{steps: steps, spinner: sp}
}

// Result returns the finished workflow result, or nil while running.
func (m Model) Result() *workflow.Result {
	return m.result
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case WorkflowEventMsg:
		return m.handleWorkflowEvent(msg.Event), nil

	case WorkflowResultMsg:
		m.done = true
		m.result = msg.Result
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleWorkflowEvent(evt workflow.Event) Model {
	switch evt.Type {
	case workflow.EventWorkflowStarted:
		m.logs = appendLog(m.logs, "workflow started")
	case workflow.EventStepStarted:
		m.setStatus(evt.Step, StepRunning, "")
		m.logs = appendLog(m.logs, fmt.Sprintf("%s started", evt.Step))
	case workflow.EventStepCompleted:
		m.setStatus(evt.Step, StepCompleted, "")
		m.logs = appendLog(m.logs, fmt.Sprintf("%s completed", evt.Step))
	case workflow.EventStepFailed:
		reason := ""
		if evt.Result != nil {
			reason = evt.Result.Reason
		}
		m.setStatus(evt.Step, StepFailed, reason)
		m.logs = appendLog(m.logs, fmt.Sprintf("%s failed: %s", evt.Step, reason))
	case workflow.EventWorkflowCompleted:
		m.logs = appendLog(m.logs, "workflow completed")
	}
	return m
}

// setStatus mutates the named step row in place. The steps slice is a
// reference type, so this survives Bubble Tea copying the model by value.
func (m Model) setStatus(name string, status StepStatus, reason string) {
	for i := range m.steps {
		if m.steps[i].name == name {
			m.steps[i].status = status
			m.steps[i].reason = reason
			return
		}
	}
}

func appendLog(logs []string, line string) []string {
	logs = append(logs, line)
	if len(logs) > maxLogLines {
		logs = logs[len(logs)-maxLogLines:]
	}
	return logs
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Fly-out workflow"))
	b.WriteString("\n\n")

	for _, step := range m.steps {
		b.WriteString("  ")
		b.WriteString(m.renderStep(step))
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		for _, line := range m.logs {
			b.WriteString(LogStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	if m.done && m.result != nil {
		summary := fmt.Sprintf("%s: %d/%d steps succeeded",
			m.result.WorkflowID, m.result.Succeeded(), len(m.result.Timeline))
		b.WriteString("\n")
		b.WriteString(SummaryStyle.Render(summary))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderStep(step stepRow) string {
	style := StyleForStatus(step.status)
	switch step.status {
	case StepRunning:
		return m.spinner.View() + " " + style.Render(step.name)
	case StepCompleted:
		return style.Render("✓ " + step.name)
	case StepFailed:
		label := "✗ " + step.name
		if step.reason != "" {
			label += " (" + step.reason + ")"
		}
		return style.Render(label)
	default:
		return style.Render("· " + step.name)
	}
}
