package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hugo-lorenzo-mato/taskflow/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"CRLF to LF", "line1\r\nline2\r\n", "line1\nline2"},
		{"trailing whitespace", "line1   \nline2\t\n", "line1\nline2"},
		{"trailing newlines", "line1\nline2\n\n\n", "line1\nline2"},
		{"empty string", "", ""},
		{"mixed line endings", "a\r\nb  \nc\t\r\n", "a\nb\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.Normalize(tt.input))
		})
	}
}

func TestScrubTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"RFC 3339", "started at 2024-01-15T10:30:45Z", "started at [TIMESTAMP]"},
		{"fraction and offset in JSON", `"at": "2024-01-15T10:30:45.123456+02:00",`, `"at": "[TIMESTAMP]",`},
		{"standard datetime", "created 2024-01-15 10:30:45 done", "created [TIMESTAMP] done"},
		{"time only", "run at 10:30:45", "run at [TIMESTAMP]"},
		{"no timestamps", "no timestamps here", "no timestamps here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.ScrubTimestamps(tt.input))
		})
	}
}

func TestScrubDurations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"seconds with decimals", "took 1.234s to complete", "took [DURATION] to complete"},
		{"microseconds", `"duration": "12.5µs"`, `"duration": "[DURATION]"`},
		{"milliseconds", "latency: 150ms", "latency: [DURATION]"},
		{"no durations", "hello world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.ScrubDurations(tt.input))
		})
	}
}

func TestScrubAll(t *testing.T) {
	in := "run 3f2504e0-4f89-11d3-9a0c-0305e82c3301 wrote /tmp/x/report.json at 2024-01-15T10:30:45Z in 1.5s  \n"
	assert.Equal(t, "run [UUID] wrote [WORKDIR]/report.json at [TIMESTAMP] in [DURATION]",
		testutil.ScrubAll(in, "/tmp/x"))
	assert.Equal(t, "no paths", testutil.ScrubPaths("no paths", ""))
}

func TestGolden(t *testing.T) {
	g := testutil.NewGolden(t, "testdata")
	g.AssertString("sample", "first line  \r\nsecond line\n\n")
}
