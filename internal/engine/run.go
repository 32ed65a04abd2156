package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/taskflow/internal/control"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

// run holds the state of a single workflow execution.
type run struct {
	engine *Engine
	wf     *core.Workflow
	rc     *core.RunContext
	id     string
	plane  *control.Plane
	logger *logging.Logger
}

func (r *run) execute(ctx context.Context) (*core.Report, error) {
	started := time.Now()
	total := r.wf.Len()

	mode := "sequential"
	if r.engine.workers > 1 {
		mode = "concurrent"
	}
	r.logger.Info("executing workflow", "tasks", total, "mode", mode)
	if r.logger.Enabled(ctx, slog.LevelDebug) {
		r.logger.Debug("initial run context", "values", r.logger.Sanitizer().SanitizeMap(r.rc.Snapshot()))
	}
	r.publish(events.NewWorkflowStartedEvent(r.wf.Name, r.id, total))

	sched := newScheduler(r.wf.Tasks())

	var err error
	if r.engine.workers > 1 {
		err = r.runWaves(ctx, sched)
	} else {
		err = r.runSequential(ctx, sched)
	}
	if err != nil {
		remaining := sched.remaining()
		r.logger.Error("workflow aborted", "error", err, "remaining", remaining)
		r.publishPriority(events.NewWorkflowFailedEvent(r.wf.Name, r.id, err, remaining))
		return nil, err
	}

	report := core.NewReport(r.id, r.wf, started)
	r.logger.Info(fmt.Sprintf("workflow completed: %d/%d tasks succeeded", report.Completed(), total),
		"completed", report.Completed(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
		"total", total,
		"duration", report.Duration(),
	)
	r.publishPriority(events.NewWorkflowCompletedEvent(r.wf.Name, r.id, report.Duration(),
		total, report.Completed(), report.Failed(), report.Skipped()))
	return report, nil
}

// runSequential runs one task at a time, sharing r.rc by reference.
func (r *run) runSequential(ctx context.Context, s *scheduler) error {
	for !s.done() {
		if err := r.wait(ctx); err != nil {
			return err
		}
		i, ok := s.next()
		if !ok {
			return core.ErrDeadlock(s.remaining())
		}
		task := s.tasks[i]
		if reason, skip := r.skipReason(task); skip {
			r.skip(task, reason)
		} else {
			r.runTask(ctx, task, r.rc)
		}
		s.resolve(i)
	}
	return nil
}

// runWaves runs every ready task of a wave concurrently. Each action gets a
// fork of the run context; forks are merged back in insertion order once
// the wave finishes.
func (r *run) runWaves(ctx context.Context, s *scheduler) error {
	for !s.done() {
		if err := r.wait(ctx); err != nil {
			return err
		}
		wave := s.wave()
		if len(wave) == 0 {
			return core.ErrDeadlock(s.remaining())
		}
		r.logger.Debug("executing task wave", "ready", len(wave))

		forks := make([]*core.RunContext, len(wave))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.engine.workers)
		for n, i := range wave {
			task := s.tasks[i]
			if reason, skip := r.skipReason(task); skip {
				r.skip(task, reason)
				continue
			}
			fork := r.rc.Fork()
			forks[n] = fork
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				r.runTask(gctx, task, fork)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return core.ErrCancelled(err)
		}

		for n, i := range wave {
			if forks[n] != nil {
				r.rc.Merge(forks[n])
			}
			s.resolve(i)
		}
	}
	return nil
}

// wait holds the run while it is paused and reports cancellation.
func (r *run) wait(ctx context.Context) error {
	if r.plane.IsPaused() {
		r.logger.Info("run paused")
	}
	if err := r.plane.WaitIfPaused(ctx); err != nil {
		return core.ErrCancelled(err)
	}
	return nil
}

// runTask drives a task through running to completed or failed. Action
// errors, panics and timeouts are recorded on the task, never returned.
func (r *run) runTask(ctx context.Context, task *core.Task, rc *core.RunContext) {
	logger := r.logger.WithTask(task.Name)

	if task.Status != core.TaskStatusPending {
		// Left running by an interrupted run.
		task.Reset()
	}
	_ = task.MarkRunning()
	logger.Info("executing task")
	r.publish(events.NewTaskStartedEvent(r.wf.Name, r.id, task.Name))

	result, err := r.invoke(logging.IntoContext(ctx, logger), task, rc)
	if err != nil {
		_ = task.MarkFailed(err)
		logger.Error("task failed", "error", err)
		r.publish(events.NewTaskFailedEvent(r.wf.Name, r.id, task.Name, err))
		return
	}

	_ = task.MarkCompleted(result)
	logger.Debug("task completed", "duration", task.Duration())
	r.publish(events.NewTaskCompletedEvent(r.wf.Name, r.id, task.Name, task.Duration()))
}

// invoke calls the task action, applying the per-task timeout if one is set.
func (r *run) invoke(ctx context.Context, task *core.Task, rc *core.RunContext) (any, error) {
	if task.Action == nil {
		return nil, core.ErrValidation(core.CodeUnknownAction, fmt.Sprintf("task %s has no action", task.Name))
	}
	timeout := r.engine.taskTimeout
	if timeout <= 0 {
		return safeExecute(ctx, task.Action, rc)
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := safeExecute(tctx, task.Action, rc)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The action goroutine is abandoned if it ignores its context.
		return nil, core.ErrTimeout(fmt.Sprintf("task %s exceeded timeout of %s", task.Name, timeout))
	}
}

func safeExecute(ctx context.Context, action core.Action, rc *core.RunContext) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = core.ErrExecution(core.CodeActionPanicked, fmt.Sprintf("action panicked: %v", p))
		}
	}()
	return action.Execute(ctx, rc)
}

// skipReason reports whether task must be skipped because a dependency
// failed or was skipped. Only active with WithSkipOnFailedDependency.
func (r *run) skipReason(task *core.Task) (string, bool) {
	if !r.engine.skipOnFailedDep {
		return "", false
	}
	for _, dep := range task.Dependencies {
		d, ok := r.wf.GetTask(dep)
		if !ok {
			continue
		}
		switch d.Status {
		case core.TaskStatusFailed:
			return fmt.Sprintf("dependency %s failed", dep), true
		case core.TaskStatusSkipped:
			return fmt.Sprintf("dependency %s was skipped", dep), true
		}
	}
	return "", false
}

func (r *run) skip(task *core.Task, reason string) {
	if task.Status != core.TaskStatusPending {
		task.Reset()
	}
	_ = task.MarkSkipped(reason)
	r.logger.WithTask(task.Name).Warn("task skipped", "reason", reason)
	r.publish(events.NewTaskSkippedEvent(r.wf.Name, r.id, task.Name, reason))
}

func (r *run) publish(event events.Event) {
	if r.engine.bus != nil {
		r.engine.bus.Publish(event)
	}
}

func (r *run) publishPriority(event events.Event) {
	if r.engine.bus != nil {
		r.engine.bus.PublishPriority(event)
	}
}
