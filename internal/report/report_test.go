package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/testutil"
)

func sampleReport() *core.Report {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &core.Report{
		RunID:      "run-1",
		Workflow:   "order_processing",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Tasks: []core.TaskReport{
			{Name: "validate", Status: core.TaskStatusCompleted, Result: map[string]any{"valid": true}, Duration: time.Millisecond},
			{Name: "payment", Status: core.TaskStatusFailed, Error: "card declined", Duration: 2 * time.Millisecond},
			{Name: "fulfill", Status: core.TaskStatusSkipped, SkipReason: "dependency payment failed"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"", FormatText, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleReport())

	if doc.Summary != (Summary{Total: 3, Completed: 1, Failed: 1, Skipped: 1}) {
		t.Errorf("Summary = %+v", doc.Summary)
	}
	if doc.Duration != "1.5s" {
		t.Errorf("Duration = %q, want 1.5s", doc.Duration)
	}
	if doc.Tasks[0].Error != nil || doc.Tasks[0].Result == nil {
		t.Error("completed task must carry a result and no error")
	}
	if doc.Tasks[1].Error == nil || *doc.Tasks[1].Error != "card declined" || doc.Tasks[1].Result != nil {
		t.Error("failed task must carry an error and no result")
	}
	if doc.Tasks[2].Error != nil || doc.Tasks[2].Result != nil {
		t.Error("skipped task must carry neither result nor error")
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	tasks := decoded["tasks"].([]any)
	payment := tasks[1].(map[string]any)
	if payment["error"] != "card declined" || payment["result"] != nil {
		t.Errorf("payment = %v", payment)
	}
	validate := tasks[0].(map[string]any)
	if _, ok := validate["error"]; !ok {
		t.Error("error key should be present and null")
	}
}

func TestRender_JSONGolden(t *testing.T) {
	data, err := Marshal(sampleReport(), FormatJSON)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	testutil.NewGolden(t, "testdata").Assert("report_json", data)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatYAML); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	var doc Document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if doc.Workflow != "order_processing" || len(doc.Tasks) != 3 {
		t.Errorf("decoded = %+v", doc)
	}
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatText); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Workflow: order_processing",
		"1/3 tasks completed",
		"1 failed",
		"1 skipped",
		"validate",
		`{"valid":true}`,
		"card declined",
		"dependency payment failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, sampleReport(), Format("xml"))
	if !errors.Is(err, core.ErrValidation(core.CodeInvalidConfig, "")) {
		t.Errorf("Render() error = %v, want invalid config", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a\nb", 10); got != "a b" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate(strings.Repeat("x", 20), 10); got != "xxxxxxx..." {
		t.Errorf("truncate() = %q", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")

	if err := WriteFile(path, sampleReport(), ""); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("expected JSON from .json extension, got %s", data)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()
	r.RunID = "run/1"

	path, err := Save(dir, r, FormatYAML)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != "order_processing-run_1.yaml" {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"r.json": FormatJSON,
		"r.YML":  FormatYAML,
		"r.yaml": FormatYAML,
		"r.txt":  FormatText,
		"r":      FormatText,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
