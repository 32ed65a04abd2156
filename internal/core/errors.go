package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatExecution  ErrorCategory = "execution"  // Runtime failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatState      ErrorCategory = "state"      // Scheduling state conflict
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExecution creates an execution error.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      CodeTimeout,
		Message:   message,
		Retryable: true,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error. The code is derived from the
// resource kind, e.g. "workflow" yields WORKFLOW_NOT_FOUND.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      strings.ToUpper(resource) + "_NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// ErrDeadlock creates the error returned when no task can make progress
// while some remain unresolved. This covers both dependency cycles and
// dependencies on tasks that were never added.
func ErrDeadlock(remaining []string) *DomainError {
	names := append([]string(nil), remaining...)
	return &DomainError{
		Category: ErrCatState,
		Code:     CodeWorkflowDeadlock,
		Message: fmt.Sprintf("cannot execute workflow: circular dependency or missing dependencies, remaining tasks: [%s]",
			strings.Join(names, ", ")),
		Retryable: false,
		Details: map[string]interface{}{
			"remaining": names,
		},
	}
}

// ErrCancelled wraps a context error that aborted a run.
func ErrCancelled(cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      CodeRunCancelled,
		Message:   "workflow run cancelled",
		Retryable: false,
		Cause:     cause,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	return IsCategory(err, ErrCatNotFound)
}

// IsDeadlock reports whether err is a scheduling deadlock.
func IsDeadlock(err error) bool {
	var domErr *DomainError
	return errors.As(err, &domErr) && domErr.Code == CodeWorkflowDeadlock
}

// RemainingTasks returns the unresolved task names carried by a deadlock error.
func RemainingTasks(err error) []string {
	var domErr *DomainError
	if !errors.As(err, &domErr) || domErr.Code != CodeWorkflowDeadlock {
		return nil
	}
	names, _ := domErr.Details["remaining"].([]string)
	return names
}

// Predefined error codes
const (
	CodeTaskNotFound       = "TASK_NOT_FOUND"
	CodeWorkflowNotFound   = "WORKFLOW_NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeWorkflowDeadlock   = "WORKFLOW_DEADLOCK"
	CodeWorkflowRunning    = "WORKFLOW_RUNNING"
	CodeWorkflowNotRunning = "WORKFLOW_NOT_RUNNING"
	CodeRunCancelled       = "RUN_CANCELLED"
	CodeTimeout            = "TIMEOUT"

	// Validation error codes
	CodeEmptyName       = "EMPTY_NAME"
	CodeDuplicateTask   = "DUPLICATE_TASK"
	CodeDuplicateFlow   = "DUPLICATE_WORKFLOW"
	CodeUnknownAction   = "UNKNOWN_ACTION"
	CodeInvalidParams   = "INVALID_PARAMS"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeInvalidDocument = "INVALID_DOCUMENT"

	// Execution error codes
	CodeActionFailed   = "ACTION_FAILED"
	CodeActionPanicked = "ACTION_PANICKED"
	CodeDAGCycle       = "DAG_CYCLE"
	CodeMissingDep     = "MISSING_DEPENDENCY"
)
