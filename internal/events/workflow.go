package events

import "time"

// Event type constants for workflow run events.
const (
	TypeWorkflowStarted   = "workflow_started"
	TypeWorkflowCompleted = "workflow_completed"
	TypeWorkflowFailed    = "workflow_failed"
)

// WorkflowStartedEvent is emitted when a run begins.
type WorkflowStartedEvent struct {
	BaseEvent
	TotalTasks int `json:"total_tasks"`
}

// NewWorkflowStartedEvent creates a new workflow started event.
func NewWorkflowStartedEvent(workflow, runID string, totalTasks int) WorkflowStartedEvent {
	return WorkflowStartedEvent{
		BaseEvent:  NewBaseEvent(TypeWorkflowStarted, workflow, runID),
		TotalTasks: totalTasks,
	}
}

// WorkflowCompletedEvent is emitted when every task of a run is resolved,
// whether or not the tasks succeeded.
type WorkflowCompletedEvent struct {
	BaseEvent
	Duration   time.Duration `json:"duration"`
	TotalTasks int           `json:"total_tasks"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
}

// NewWorkflowCompletedEvent creates a new workflow completed event.
func NewWorkflowCompletedEvent(workflow, runID string, duration time.Duration, total, completed, failed, skipped int) WorkflowCompletedEvent {
	return WorkflowCompletedEvent{
		BaseEvent:  NewBaseEvent(TypeWorkflowCompleted, workflow, runID),
		Duration:   duration,
		TotalTasks: total,
		Completed:  completed,
		Failed:     failed,
		Skipped:    skipped,
	}
}

// WorkflowFailedEvent is emitted when a run aborts (deadlock, cancellation).
// This is a PRIORITY event - never dropped.
type WorkflowFailedEvent struct {
	BaseEvent
	Error     string   `json:"error"`
	Remaining []string `json:"remaining,omitempty"`
}

// NewWorkflowFailedEvent creates a new workflow failed event.
func NewWorkflowFailedEvent(workflow, runID string, err error, remaining []string) WorkflowFailedEvent {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return WorkflowFailedEvent{
		BaseEvent: NewBaseEvent(TypeWorkflowFailed, workflow, runID),
		Error:     errStr,
		Remaining: remaining,
	}
}
