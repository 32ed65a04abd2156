package core

import "context"

// Action is the work a task performs. It receives the run context shared by
// the tasks of one execution and returns a result or an error.
type Action interface {
	Execute(ctx context.Context, rc *RunContext) (any, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, rc *RunContext) (any, error)

// Execute calls f.
func (f ActionFunc) Execute(ctx context.Context, rc *RunContext) (any, error) {
	return f(ctx, rc)
}
