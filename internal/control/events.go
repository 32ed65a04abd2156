package control

import "github.com/hugo-lorenzo-mato/taskflow/internal/events"

// Control event types.
const (
	TypePaused          = "control_paused"
	TypeResumed         = "control_resumed"
	TypeCancelRequested = "control_cancel_requested"
)

// PausedEvent signals that a run will hold before its next task.
type PausedEvent struct {
	events.BaseEvent
}

// NewPausedEvent creates a paused event.
func NewPausedEvent(workflow, runID string) PausedEvent {
	return PausedEvent{BaseEvent: events.NewBaseEvent(TypePaused, workflow, runID)}
}

// ResumedEvent signals that a paused run continues.
type ResumedEvent struct {
	events.BaseEvent
}

// NewResumedEvent creates a resumed event.
func NewResumedEvent(workflow, runID string) ResumedEvent {
	return ResumedEvent{BaseEvent: events.NewBaseEvent(TypeResumed, workflow, runID)}
}

// CancelRequestedEvent signals a cancellation request. The run itself ends
// with a workflow_failed event.
type CancelRequestedEvent struct {
	events.BaseEvent
}

// NewCancelRequestedEvent creates a cancel requested event.
func NewCancelRequestedEvent(workflow, runID string) CancelRequestedEvent {
	return CancelRequestedEvent{BaseEvent: events.NewBaseEvent(TypeCancelRequested, workflow, runID)}
}
