package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/fsutil"
)

// WriteFile renders r and atomically replaces path with the result. The
// format is taken from the file extension when format is empty.
func WriteFile(path string, r *core.Report, format Format) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	data, err := Marshal(r, format)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Save writes r into dir as <workflow>-<run id><ext> and returns the path.
func Save(dir string, r *core.Report, format Format) (string, error) {
	name := sanitizeName(r.Workflow) + "-" + sanitizeName(r.RunID) + format.Extension()
	path := filepath.Join(dir, name)
	return path, WriteFile(path, r, format)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
