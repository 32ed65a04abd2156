package api

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
	"github.com/hugo-lorenzo-mato/taskflow/internal/report"
	"github.com/hugo-lorenzo-mato/taskflow/internal/suggest"
)

// maxRunBody limits the size of a run request body.
const maxRunBody = 1 << 20

// WorkflowSummary is one entry of the workflow list.
type WorkflowSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Tasks       int    `json:"tasks"`
	Running     bool   `json:"running"`
}

// TaskInfo describes a task's position in the graph.
type TaskInfo struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
}

// WorkflowDetail describes a workflow and its dependency graph.
type WorkflowDetail struct {
	WorkflowSummary
	Tasks        []TaskInfo          `json:"task_list"`
	Order        []string            `json:"order"`
	Levels       [][]string          `json:"levels"`
	Missing      map[string][]string `json:"missing,omitempty"`
	Cycle        []string            `json:"cycle,omitempty"`
	Unresolvable []string            `json:"unresolvable,omitempty"`
}

func (s *Server) summary(wf *core.Workflow) WorkflowSummary {
	return WorkflowSummary{
		Name:        wf.Name,
		Description: wf.Description,
		Tasks:       wf.Len(),
		Running:     s.engine.IsRunning(wf.Name),
	}
}

// lookup resolves the {name} URL parameter and writes a 404 on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*core.Workflow, bool) {
	name := chi.URLParam(r, "name")
	wf, ok := s.engine.Workflow(name)
	if !ok {
		err := core.ErrNotFound("workflow", name)
		if hint := suggest.Closest(name, s.engine.Workflows(), suggest.DefaultLimit); len(hint) > 0 {
			err.WithDetail("suggestions", hint)
		}
		respondDomainError(w, err)
		return nil, false
	}
	return wf, true
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, _ *http.Request) {
	names := s.engine.Workflows()
	list := make([]WorkflowSummary, 0, len(names))
	for _, name := range names {
		if wf, ok := s.engine.Workflow(name); ok {
			list = append(list, s.summary(wf))
		}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.lookup(w, r)
	if !ok {
		return
	}

	a := engine.Analyze(wf)
	detail := WorkflowDetail{
		WorkflowSummary: s.summary(wf),
		Tasks:           make([]TaskInfo, 0, wf.Len()),
		Order:           a.Order,
		Levels:          a.Levels,
		Missing:         a.Missing,
		Cycle:           a.Cycle,
		Unresolvable:    a.Unresolvable,
	}
	for _, t := range wf.Tasks() {
		detail.Tasks = append(detail.Tasks, TaskInfo{
			Name:         t.Name,
			Dependencies: append([]string{}, t.Dependencies...),
		})
	}
	respondJSON(w, http.StatusOK, detail)
}

// handleRunWorkflow executes a workflow synchronously. The optional JSON
// object body seeds the run context.
func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.lookup(w, r)
	if !ok {
		return
	}

	initial := make(map[string]any)
	if s.contextFor != nil {
		maps.Copy(initial, s.contextFor(wf.Name))
	}
	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRunBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "request body must be a JSON object: "+err.Error())
		return
	}
	maps.Copy(initial, body)

	result, err := s.engine.ExecuteWorkflow(r.Context(), wf.Name, core.NewRunContext(initial))
	if err != nil {
		s.logger.Warn("workflow run rejected", "workflow", wf.Name, "error", err)
		respondDomainError(w, err)
		return
	}

	doc := report.NewDocument(result)
	s.history.Attach(doc)
	respondJSON(w, http.StatusOK, doc)
}
