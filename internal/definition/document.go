// Package definition loads workflow definitions from YAML documents and
// turns them into executable workflows.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/taskflow/internal/actions"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/fsutil"
)

// Document is the top-level structure of a definitions file.
type Document struct {
	Workflows []WorkflowDef `yaml:"workflows" json:"workflows"`
}

// WorkflowDef describes one workflow.
type WorkflowDef struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Context     map[string]any `yaml:"context,omitempty" json:"context,omitempty"`
	Tasks       []TaskDef      `yaml:"tasks" json:"tasks"`
}

// TaskDef describes one task and the action it runs.
type TaskDef struct {
	Name      string         `yaml:"name" json:"name"`
	Action    string         `yaml:"action" json:"action"`
	Params    map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	DependsOn []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// Load reads and parses a definitions file.
func Load(path string) (*Document, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return nil, fmt.Errorf("reading definitions: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, core.ErrValidation(core.CodeInvalidDocument,
			fmt.Sprintf("invalid definitions: %v", err)).WithCause(err)
	}
	return &doc, nil
}

// Lookup returns the definition of a workflow.
func (d *Document) Lookup(name string) (*WorkflowDef, bool) {
	for i := range d.Workflows {
		if d.Workflows[i].Name == name {
			return &d.Workflows[i], true
		}
	}
	return nil, false
}

// Names returns the workflow names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Workflows))
	for _, wf := range d.Workflows {
		names = append(names, wf.Name)
	}
	return names
}

// Validate checks names and actions. Dependency problems are left to
// graph analysis and execution.
func (d *Document) Validate(reg *actions.Registry) error {
	var errs Errors
	seen := make(map[string]bool)
	for i, wf := range d.Workflows {
		where := fmt.Sprintf("workflows[%d]", i)
		if strings.TrimSpace(wf.Name) == "" {
			errs.add(where, core.CodeEmptyName, "workflow name is required")
		} else {
			where = wf.Name
			if seen[wf.Name] {
				errs.add(where, core.CodeDuplicateFlow, "workflow defined more than once")
			}
			seen[wf.Name] = true
		}

		tasks := make(map[string]bool)
		for j, t := range wf.Tasks {
			tw := fmt.Sprintf("%s.tasks[%d]", where, j)
			if strings.TrimSpace(t.Name) == "" {
				errs.add(tw, core.CodeEmptyName, "task name is required")
			} else {
				tw = where + "." + t.Name
				if tasks[t.Name] {
					errs.add(tw, core.CodeDuplicateTask, "task defined more than once")
				}
				tasks[t.Name] = true
			}
			if t.Action == "" {
				errs.add(tw, core.CodeUnknownAction, "action is required")
			} else if _, err := reg.Build(t.Action, t.Params); err != nil {
				errs.add(tw, codeOf(err), err.Error())
			}
		}
	}
	return errs.orNil()
}

// Build validates the document and constructs one workflow per definition.
func (d *Document) Build(reg *actions.Registry) ([]*core.Workflow, error) {
	if err := d.Validate(reg); err != nil {
		return nil, err
	}
	workflows := make([]*core.Workflow, 0, len(d.Workflows))
	for _, def := range d.Workflows {
		wf, err := def.Build(reg)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

// Build constructs the workflow. Tasks are added in definition order.
func (w *WorkflowDef) Build(reg *actions.Registry) (*core.Workflow, error) {
	wf := core.NewWorkflow(w.Name, w.Description)
	for _, t := range w.Tasks {
		action, err := reg.Build(t.Action, t.Params)
		if err != nil {
			return nil, fmt.Errorf("workflow %s, task %s: %w", w.Name, t.Name, err)
		}
		wf.AddTask(t.Name, action, t.DependsOn...)
	}
	return wf, nil
}

func codeOf(err error) string {
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		return domErr.Code
	}
	return core.CodeInvalidDocument
}
