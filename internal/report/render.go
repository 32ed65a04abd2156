// Package report renders workflow run reports as text, JSON or YAML and
// writes them to disk.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	}
	return "", core.ErrValidation(core.CodeInvalidConfig,
		fmt.Sprintf("unknown report format %q (want text, json or yaml)", s))
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// Document is the serialised form of a report.
type Document struct {
	RunID      string      `json:"run_id" yaml:"run_id"`
	Workflow   string      `json:"workflow" yaml:"workflow"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time   `json:"finished_at" yaml:"finished_at"`
	Duration   string      `json:"duration" yaml:"duration"`
	Summary    Summary     `json:"summary" yaml:"summary"`
	Tasks      []TaskEntry `json:"tasks" yaml:"tasks"`
}

// Summary counts tasks by outcome.
type Summary struct {
	Total     int  `json:"total" yaml:"total"`
	Completed int  `json:"completed" yaml:"completed"`
	Failed    int  `json:"failed" yaml:"failed"`
	Skipped   int  `json:"skipped" yaml:"skipped"`
	Succeeded bool `json:"succeeded" yaml:"succeeded"`
}

// TaskEntry is one task outcome. Result and Error are null unless the task
// completed or failed respectively.
type TaskEntry struct {
	Name       string  `json:"name" yaml:"name"`
	Status     string  `json:"status" yaml:"status"`
	Result     any     `json:"result" yaml:"result"`
	Error      *string `json:"error" yaml:"error"`
	SkipReason string  `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Duration   string  `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// NewDocument converts a report into its serialised form.
func NewDocument(r *core.Report) Document {
	doc := Document{
		RunID:      r.RunID,
		Workflow:   r.Workflow,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Duration:   r.Duration().Round(time.Microsecond).String(),
		Summary: Summary{
			Total:     len(r.Tasks),
			Completed: r.Completed(),
			Failed:    r.Failed(),
			Skipped:   r.Skipped(),
			Succeeded: r.Succeeded(),
		},
		Tasks: make([]TaskEntry, 0, len(r.Tasks)),
	}
	for _, t := range r.Tasks {
		entry := TaskEntry{
			Name:       t.Name,
			Status:     string(t.Status),
			SkipReason: t.SkipReason,
		}
		if t.Status == core.TaskStatusCompleted {
			entry.Result = t.Result
		}
		if t.Status == core.TaskStatusFailed {
			msg := t.Error
			entry.Error = &msg
		}
		if t.Duration > 0 {
			entry.Duration = t.Duration.Round(time.Microsecond).String()
		}
		doc.Tasks = append(doc.Tasks, entry)
	}
	return doc
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *core.Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(r)); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, RenderText(r, NewTextRenderer(w)))
		return err
	}
	return core.ErrValidation(core.CodeInvalidConfig, fmt.Sprintf("unknown report format %q", format))
}

// Marshal renders r into memory.
func Marshal(r *core.Report, format Format) ([]byte, error) {
	var b strings.Builder
	if err := Render(&b, r, format); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
