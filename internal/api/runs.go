package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/report"
)

// DefaultRunHistory is the number of runs kept when not configured.
const DefaultRunHistory = 100

// Run states.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunRecord summarises one workflow run.
type RunRecord struct {
	RunID      string           `json:"run_id"`
	Workflow   string           `json:"workflow"`
	Status     string           `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Error      string           `json:"error,omitempty"`
	Remaining  []string         `json:"remaining,omitempty"`
	Summary    *report.Summary  `json:"summary,omitempty"`
	Report     *report.Document `json:"report,omitempty"`
}

// RunHistory keeps the most recent runs in memory. It is not persisted.
type RunHistory struct {
	mu    sync.RWMutex
	size  int
	order []string // oldest first
	runs  map[string]*RunRecord
}

// NewRunHistory creates a history holding up to size runs.
func NewRunHistory(size int) *RunHistory {
	if size <= 0 {
		size = DefaultRunHistory
	}
	return &RunHistory{size: size, runs: make(map[string]*RunRecord)}
}

// Listen records workflow lifecycle events until ctx is done or the bus
// is closed. Terminal events come through a priority subscription so a
// busy bus never drops the outcome of a run.
func (h *RunHistory) Listen(ctx context.Context, bus *events.EventBus) {
	started := bus.Subscribe(events.TypeWorkflowStarted)
	defer bus.Unsubscribe(started)
	finished := bus.SubscribePriority(events.TypeWorkflowCompleted, events.TypeWorkflowFailed)
	defer bus.Unsubscribe(finished)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-started:
			if !ok {
				return
			}
			h.Observe(ev)
		case ev, ok := <-finished:
			if !ok {
				return
			}
			h.Observe(ev)
		}
	}
}

// Observe applies a lifecycle event.
func (h *RunHistory) Observe(ev events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := ev.(type) {
	case events.WorkflowStartedEvent:
		// A report attached earlier is more complete than this event.
		if _, ok := h.runs[e.RunID()]; ok {
			return
		}
		h.insert(&RunRecord{
			RunID:     e.RunID(),
			Workflow:  e.WorkflowName(),
			Status:    RunRunning,
			StartedAt: e.Timestamp(),
		})

	case events.WorkflowCompletedEvent:
		rec := h.ensure(e.RunID(), e.WorkflowName(), e.Timestamp().Add(-e.Duration))
		finished := e.Timestamp()
		rec.Status = RunCompleted
		rec.FinishedAt = &finished
		if rec.Summary == nil {
			rec.Summary = &report.Summary{
				Total:     e.TotalTasks,
				Completed: e.Completed,
				Failed:    e.Failed,
				Skipped:   e.Skipped,
				Succeeded: e.Completed == e.TotalTasks,
			}
		}

	case events.WorkflowFailedEvent:
		rec := h.ensure(e.RunID(), e.WorkflowName(), e.Timestamp())
		finished := e.Timestamp()
		rec.Status = RunFailed
		rec.FinishedAt = &finished
		rec.Error = e.Error
		rec.Remaining = e.Remaining
	}
}

// Attach stores the final report of a run.
func (h *RunHistory) Attach(doc report.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.ensure(doc.RunID, doc.Workflow, doc.StartedAt)
	finished := doc.FinishedAt
	summary := doc.Summary
	rec.Status = RunCompleted
	rec.StartedAt = doc.StartedAt
	rec.FinishedAt = &finished
	rec.Summary = &summary
	rec.Report = &doc
}

// Get returns a run by ID.
func (h *RunHistory) Get(runID string) (RunRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.runs[runID]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// List returns the runs, most recent first, optionally filtered by workflow.
// The reports themselves are left out.
func (h *RunHistory) List(workflow string) []RunRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]RunRecord, 0, len(h.order))
	for i := len(h.order) - 1; i >= 0; i-- {
		rec := *h.runs[h.order[i]]
		if workflow != "" && rec.Workflow != workflow {
			continue
		}
		rec.Report = nil
		result = append(result, rec)
	}
	return result
}

// Len returns the number of stored runs.
func (h *RunHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}

func (h *RunHistory) ensure(runID, workflow string, started time.Time) *RunRecord {
	if rec, ok := h.runs[runID]; ok {
		return rec
	}
	rec := &RunRecord{RunID: runID, Workflow: workflow, Status: RunRunning, StartedAt: started}
	h.insert(rec)
	return rec
}

func (h *RunHistory) insert(rec *RunRecord) {
	h.runs[rec.RunID] = rec
	h.order = append(h.order, rec.RunID)
	for len(h.order) > h.size {
		delete(h.runs, h.order[0])
		h.order = h.order[1:]
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.history.List(r.URL.Query().Get("workflow")))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rec, ok := s.history.Get(runID)
	if !ok {
		respondDomainError(w, core.ErrNotFound("run", runID))
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
