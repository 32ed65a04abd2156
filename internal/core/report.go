package core

import "time"

// TaskReport is the outcome of one task.
type TaskReport struct {
	Name       string        `json:"name" yaml:"name"`
	Status     TaskStatus    `json:"status" yaml:"status"`
	Result     any           `json:"result" yaml:"result"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	SkipReason string        `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
}

// Report aggregates the outcome of a workflow execution.
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Workflow   string       `json:"workflow" yaml:"workflow"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Tasks      []TaskReport `json:"tasks" yaml:"tasks"`
}

// NewReport builds a report from the current state of wf's tasks.
func NewReport(runID string, wf *Workflow, started time.Time) *Report {
	r := &Report{
		RunID:      runID,
		Workflow:   wf.Name,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Tasks:      make([]TaskReport, 0, wf.Len()),
	}
	for _, t := range wf.Tasks() {
		r.Tasks = append(r.Tasks, TaskReport{
			Name:       t.Name,
			Status:     t.Status,
			Result:     t.Result,
			Error:      t.Error,
			SkipReason: t.SkipReason,
			Duration:   t.Duration(),
		})
	}
	return r
}

// Get returns the report of a single task.
func (r *Report) Get(name string) (TaskReport, bool) {
	for _, t := range r.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskReport{}, false
}

// Count returns how many tasks ended in status.
func (r *Report) Count(status TaskStatus) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Completed returns the number of completed tasks.
func (r *Report) Completed() int { return r.Count(TaskStatusCompleted) }

// Failed returns the number of failed tasks.
func (r *Report) Failed() int { return r.Count(TaskStatusFailed) }

// Skipped returns the number of skipped tasks.
func (r *Report) Skipped() int { return r.Count(TaskStatusSkipped) }

// Succeeded reports whether every task completed.
func (r *Report) Succeeded() bool {
	return r.Completed() == len(r.Tasks)
}

// Duration returns the wall-clock time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// AsMap returns the report keyed by task name. Each entry carries status,
// result and error; error is non-nil exactly for failed tasks.
func (r *Report) AsMap() map[string]map[string]any {
	out := make(map[string]map[string]any, len(r.Tasks))
	for _, t := range r.Tasks {
		var errVal any
		if t.Status == TaskStatusFailed {
			errVal = t.Error
		}
		out[t.Name] = map[string]any{
			"status": string(t.Status),
			"result": t.Result,
			"error":  errVal,
		}
	}
	return out
}
