// ABOUTME: Renders a workflow result to a markdown run report and to HTML.
// ABOUTME: Per-step status with surfaced fields and provenance, plus a state-log appendix.

package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389-research/flyout/workflow"
)

// Markdown renders the result as a markdown run report.
func Markdown(result *workflow.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Workflow %s\n\n", result.WorkflowID)
	fmt.Fprintf(&b, "Submitted: %s\n\n", result.Submitted.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**%d/%d steps succeeded**\n\n", result.Succeeded(), len(result.Timeline))

	b.WriteString("## Steps\n\n")
	for _, entry := range result.Timeline {
		writeStep(&b, entry)
	}

	if len(result.StateLog) > 0 {
		b.WriteString("## State log\n\n")
		b.WriteString("| Step | Result | Attempts | Error |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, e := range result.StateLog {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", e.Step, status, e.Attempts, e.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeStep(b *strings.Builder, entry workflow.TimelineEntry) {
	result := entry.Result
	if result.Success {
		fmt.Fprintf(b, "### ✅ %s\n\n", entry.Step)
	} else {
		fmt.Fprintf(b, "### ❌ %s\n\n", entry.Step)
		fmt.Fprintf(b, "Reason: %s\n\n", result.Reason)
		return
	}

	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		line := fmt.Sprintf("- **%s**: %v", name, result.Fields[name])
		if result.Sources[name] == workflow.SourceFallback {
			line += " _(fallback)_"
		}
		b.WriteString(line + "\n")
	}
	if len(names) > 0 {
		b.WriteString("\n")
	}
}

// HTML renders the markdown report to an HTML fragment via goldmark.
func HTML(result *workflow.Result) (string, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(Markdown(result)), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}
