package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
)

// maxCell bounds the width of result and error cells.
const maxCell = 60

// TextRenderer holds the styles used for text reports. Colours are only
// emitted when the destination supports them.
type TextRenderer struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	completed lipgloss.Style
	failed    lipgloss.Style
	skipped   lipgloss.Style
	pending   lipgloss.Style
	border    lipgloss.Style
}

// NewTextRenderer creates styles for output written to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	r := lipgloss.NewRenderer(w)
	return &TextRenderer{
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7c3aed")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		completed: r.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		failed:    r.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
		skipped:   r.NewStyle().Foreground(lipgloss.Color("#eab308")),
		pending:   r.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		border:    r.NewStyle().Foreground(lipgloss.Color("#3b0764")),
	}
}

func (t *TextRenderer) status(s core.TaskStatus) string {
	switch s {
	case core.TaskStatusCompleted:
		return t.completed.Render(string(s))
	case core.TaskStatusFailed:
		return t.failed.Render(string(s))
	case core.TaskStatusSkipped:
		return t.skipped.Render(string(s))
	default:
		return t.pending.Render(string(s))
	}
}

// RenderText renders r as a summary line followed by a task table.
func RenderText(r *core.Report, styles *TextRenderer) string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("Workflow: %s", r.Workflow)))
	b.WriteString("  ")
	b.WriteString(styles.muted.Render(fmt.Sprintf("run %s", r.RunID)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d/%d tasks completed", r.Completed(), len(r.Tasks)))
	if n := r.Failed(); n > 0 {
		b.WriteString(", " + styles.failed.Render(fmt.Sprintf("%d failed", n)))
	}
	if n := r.Skipped(); n > 0 {
		b.WriteString(", " + styles.skipped.Render(fmt.Sprintf("%d skipped", n)))
	}
	b.WriteString(styles.muted.Render(fmt.Sprintf(" in %s", r.Duration().Round(time.Millisecond))))
	b.WriteString("\n")

	if len(r.Tasks) == 0 {
		return b.String()
	}

	rows := make([][]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		detail := ""
		switch t.Status {
		case core.TaskStatusCompleted:
			detail = formatValue(t.Result)
		case core.TaskStatusFailed:
			detail = t.Error
		case core.TaskStatusSkipped:
			detail = t.SkipReason
		}
		rows = append(rows, []string{
			t.Name,
			styles.status(t.Status),
			t.Duration.Round(time.Millisecond).String(),
			truncate(detail, maxCell),
		})
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.border).
		Headers("TASK", "STATUS", "DURATION", "RESULT / ERROR").
		Rows(rows...)
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	return b.String()
}

// formatValue renders a result compactly; maps and slices as JSON.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
