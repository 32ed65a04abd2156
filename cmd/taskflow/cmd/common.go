package cmd

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/taskflow/internal/config"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/definition"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
	"github.com/hugo-lorenzo-mato/taskflow/internal/suggest"
)

// newLogger creates the command logger. Logs go to stderr so reports on
// stdout stay machine readable.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(cfg.LoggingConfig())
}

// loadDocument reads the configured definitions file.
func loadDocument(cfg *config.Config) (*definition.Document, error) {
	doc, err := definition.Load(cfg.Definitions.Path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// workflowNotFound builds the error for an unknown workflow name, with
// suggestions taken from the known names.
func workflowNotFound(name string, known []string) error {
	err := core.ErrNotFound("workflow", name)
	hints := suggest.Closest(name, known, suggest.DefaultLimit)
	if len(hints) > 0 {
		err.WithDetail("suggestions", hints)
	}
	return fmt.Errorf("%w%s", err, suggest.Hint(name, known))
}

// parseAssignments turns --set key=value pairs into context values. Values
// are decoded as YAML scalars, so numbers and booleans keep their type;
// anything that does not decode is kept as a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || raw == "" {
			v = raw
		}
		values[key] = v
	}
	return values, nil
}

// message returns the human part of a domain error.
func message(err error) string {
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		return domErr.Message
	}
	return err.Error()
}
