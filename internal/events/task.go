package events

import "time"

// Event type constants for task events.
const (
	TypeTaskStarted   = "task_started"
	TypeTaskCompleted = "task_completed"
	TypeTaskFailed    = "task_failed"
	TypeTaskSkipped   = "task_skipped"
)

// TaskStartedEvent is emitted when a task begins execution.
type TaskStartedEvent struct {
	BaseEvent
	Task string `json:"task"`
}

// NewTaskStartedEvent creates a new task started event.
func NewTaskStartedEvent(workflow, runID, task string) TaskStartedEvent {
	return TaskStartedEvent{
		BaseEvent: NewBaseEvent(TypeTaskStarted, workflow, runID),
		Task:      task,
	}
}

// TaskCompletedEvent is emitted when a task finishes successfully.
type TaskCompletedEvent struct {
	BaseEvent
	Task     string        `json:"task"`
	Duration time.Duration `json:"duration"`
}

// NewTaskCompletedEvent creates a new task completed event.
func NewTaskCompletedEvent(workflow, runID, task string, duration time.Duration) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent: NewBaseEvent(TypeTaskCompleted, workflow, runID),
		Task:      task,
		Duration:  duration,
	}
}

// TaskFailedEvent is emitted when a task action returns an error.
type TaskFailedEvent struct {
	BaseEvent
	Task  string `json:"task"`
	Error string `json:"error"`
}

// NewTaskFailedEvent creates a new task failed event.
func NewTaskFailedEvent(workflow, runID, task string, err error) TaskFailedEvent {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return TaskFailedEvent{
		BaseEvent: NewBaseEvent(TypeTaskFailed, workflow, runID),
		Task:      task,
		Error:     errStr,
	}
}

// TaskSkippedEvent is emitted when a task is skipped without running.
type TaskSkippedEvent struct {
	BaseEvent
	Task   string `json:"task"`
	Reason string `json:"reason"`
}

// NewTaskSkippedEvent creates a new task skipped event.
func NewTaskSkippedEvent(workflow, runID, task, reason string) TaskSkippedEvent {
	return TaskSkippedEvent{
		BaseEvent: NewBaseEvent(TypeTaskSkipped, workflow, runID),
		Task:      task,
		Reason:    reason,
	}
}
