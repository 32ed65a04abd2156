// Package engine registers workflows and executes them, resolving tasks in
// dependency order and aggregating a per-task report.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/taskflow/internal/control"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

// Engine is a registry of workflows and the driver that executes them.
type Engine struct {
	mu        sync.RWMutex
	workflows map[string]*core.Workflow
	running   map[string]*activeRun

	logger          *logging.Logger
	bus             *events.EventBus
	workers         int
	taskTimeout     time.Duration
	skipOnFailedDep bool
	resetBeforeRun  bool
	newRunID        func() string
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		workflows: make(map[string]*core.Workflow),
		running:   make(map[string]*activeRun),
		logger:    logging.NewNop(),
		newRunID:  defaultRunID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterWorkflow stores wf under its name, replacing any workflow
// previously registered with that name. The task graph is not validated.
func (e *Engine) RegisterWorkflow(wf *core.Workflow) {
	e.mu.Lock()
	e.workflows[wf.Name] = wf
	e.mu.Unlock()

	e.logger.Info("registered workflow", "workflow", wf.Name, "tasks", wf.Len())
}

// Unregister removes a workflow. It reports whether one was registered.
func (e *Engine) Unregister(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.workflows[name]
	delete(e.workflows, name)
	return ok
}

// Workflow returns a registered workflow.
func (e *Engine) Workflow(name string) (*core.Workflow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wf, ok := e.workflows[name]
	return wf, ok
}

// Workflows returns the registered workflow names, sorted.
func (e *Engine) Workflows() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.workflows))
	for name := range e.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRunning reports whether a run of the named workflow is in progress.
func (e *Engine) IsRunning(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.running[name]
	return ok
}

// ExecuteWorkflow runs the named workflow to completion and returns the
// report. rc is handed to every action; nil means a fresh empty context.
//
// Only two conditions abort the run with an error: an unknown workflow name
// (nothing runs) and a deadlock where unresolved tasks can never become
// ready. Task failures are recorded in the report and never returned.
func (e *Engine) ExecuteWorkflow(ctx context.Context, name string, rc *core.RunContext) (*core.Report, error) {
	runID := e.newRunID()

	e.mu.Lock()
	wf, ok := e.workflows[name]
	if !ok {
		e.mu.Unlock()
		return nil, core.ErrNotFound("workflow", name)
	}
	if current, busy := e.running[name]; busy {
		e.mu.Unlock()
		return nil, core.ErrState(core.CodeWorkflowRunning,
			fmt.Sprintf("workflow %s is already running (run %s)", name, current.id))
	}
	ctx, cancel := context.WithCancel(ctx)
	plane := control.New(cancel)
	e.running[name] = &activeRun{id: runID, plane: plane}
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		delete(e.running, name)
		e.mu.Unlock()
	}()

	if rc == nil {
		rc = core.NewRunContext(nil)
	}
	if e.resetBeforeRun {
		wf.Reset()
	}

	r := &run{
		engine: e,
		wf:     wf,
		rc:     rc,
		id:     runID,
		plane:  plane,
		logger: e.logger.WithWorkflow(wf.Name).WithRun(runID),
	}
	return r.execute(ctx)
}

// activeRun is a run in progress.
type activeRun struct {
	id    string
	plane *control.Plane
}

// RunStatus describes a run in progress.
type RunStatus struct {
	RunID string `json:"run_id"`
	control.Status
}

// RunStatus returns the state of the named workflow's current run.
func (e *Engine) RunStatus(name string) (RunStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ar, ok := e.running[name]
	if !ok {
		return RunStatus{}, false
	}
	return RunStatus{RunID: ar.id, Status: ar.plane.Status()}, true
}

// Pause holds the current run of a workflow before its next task. Tasks
// already running finish normally.
func (e *Engine) Pause(name string) (RunStatus, error) {
	return e.control(name, func(ar *activeRun) bool {
		if !ar.plane.Pause() {
			return false
		}
		e.publish(control.NewPausedEvent(name, ar.id))
		return true
	})
}

// Resume releases a paused run.
func (e *Engine) Resume(name string) (RunStatus, error) {
	return e.control(name, func(ar *activeRun) bool {
		if !ar.plane.Resume() {
			return false
		}
		e.publish(control.NewResumedEvent(name, ar.id))
		return true
	})
}

// Cancel stops the current run of a workflow. Running actions see their
// context cancelled and ExecuteWorkflow returns a cancellation error.
func (e *Engine) Cancel(name string) (RunStatus, error) {
	return e.control(name, func(ar *activeRun) bool {
		if ar.plane.IsCancelled() {
			return false
		}
		e.publish(control.NewCancelRequestedEvent(name, ar.id))
		return ar.plane.Cancel()
	})
}

// control applies fn to the active run of name. Requests that do not
// change the state are not errors.
func (e *Engine) control(name string, fn func(*activeRun) bool) (RunStatus, error) {
	e.mu.RLock()
	_, known := e.workflows[name]
	ar, running := e.running[name]
	e.mu.RUnlock()

	if !running {
		if !known {
			return RunStatus{}, core.ErrNotFound("workflow", name)
		}
		return RunStatus{}, core.ErrState(core.CodeWorkflowNotRunning,
			fmt.Sprintf("workflow %s has no run in progress", name))
	}
	if fn(ar) {
		e.logger.Info("run control applied", "workflow", name, "run_id", ar.id, "status", ar.plane.Status())
	}
	return RunStatus{RunID: ar.id, Status: ar.plane.Status()}, nil
}

func (e *Engine) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}
