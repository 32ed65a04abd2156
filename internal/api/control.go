package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
)

// handleRunStatus reports the control state of a workflow's current run.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.lookup(w, r)
	if !ok {
		return
	}
	st, running := s.engine.RunStatus(wf.Name)
	if !running {
		respondDomainError(w, core.ErrState(core.CodeWorkflowNotRunning, "workflow "+wf.Name+" has no run in progress"))
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// handleControl adapts an engine control operation to a handler. The
// request is accepted once the state is updated; the run reacts before its
// next task.
func (s *Server) handleControl(op func(name string) (engine.RunStatus, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		st, err := op(name)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusAccepted, st)
	}
}
