// ABOUTME: Defines lipgloss style constants for the workflow progress view.
// ABOUTME: Provides StyleForStatus to map step statuses to their display styles.

package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Step status colors
	PendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	RunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	CompletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	FailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Log tail
	LogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Summary line shown when the run completes
	SummaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// StyleForStatus returns the appropriate lipgloss style for a StepStatus.
func StyleForStatus(status StepStatus) lipgloss.Style {
	switch status {
	case StepRunning:
		return RunningStyle
	case StepCompleted:
		return CompletedStyle
	case StepFailed:
		return FailedStyle
	default:
		return PendingStyle
	}
}
