package core

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// IsTerminal returns true for completed, failed and skipped.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusSkipped
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	}
	return false
}

// Task is a named unit of work inside a workflow.
type Task struct {
	Name         string
	Action       Action
	Dependencies []string
	Status       TaskStatus
	Result       any
	Error        string
	SkipReason   string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// NewTask creates a pending task.
func NewTask(name string, action Action, deps ...string) *Task {
	if deps == nil {
		deps = []string{}
	}
	return &Task{
		Name:         name,
		Action:       action,
		Dependencies: deps,
		Status:       TaskStatusPending,
	}
}

// MarkRunning transitions the task to running state.
func (t *Task) MarkRunning() error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("cannot start task in %s state", t.Status)
	}
	t.Status = TaskStatusRunning
	now := time.Now()
	t.StartedAt = &now
	return nil
}

// MarkCompleted transitions the task to completed state.
func (t *Task) MarkCompleted(result any) error {
	if t.Status != TaskStatusRunning {
		return fmt.Errorf("cannot complete task in %s state", t.Status)
	}
	t.Status = TaskStatusCompleted
	t.Result = result
	t.Error = ""
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// MarkFailed transitions the task to failed state.
func (t *Task) MarkFailed(err error) error {
	if t.Status != TaskStatusRunning {
		return fmt.Errorf("cannot fail task in %s state", t.Status)
	}
	t.Status = TaskStatusFailed
	t.Result = nil
	t.Error = failureMessage(err)
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// failureMessage is never empty, so a failed task always carries an error.
func failureMessage(err error) string {
	if err == nil {
		return "task failed"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("task failed with an empty %T error", err)
}

// MarkSkipped transitions the task to skipped state. Neither result nor
// error is set; the reason is kept separately.
func (t *Task) MarkSkipped(reason string) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("cannot skip task in %s state", t.Status)
	}
	t.Status = TaskStatusSkipped
	t.SkipReason = reason
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// Reset returns the task to pending and clears any outcome.
func (t *Task) Reset() {
	t.Status = TaskStatusPending
	t.Result = nil
	t.Error = ""
	t.SkipReason = ""
	t.StartedAt = nil
	t.CompletedAt = nil
}

// Validate checks task invariants.
func (t *Task) Validate() error {
	if t.Name == "" {
		return ErrValidation(CodeEmptyName, "task name cannot be empty")
	}
	if t.Action == nil {
		return ErrValidation(CodeUnknownAction, fmt.Sprintf("task %s has no action", t.Name))
	}
	return nil
}

// Duration returns the task execution duration.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt)
}

// IsTerminal returns true if the task is in a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status.IsTerminal()
}
