package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEventBus publishes run lifecycle events on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithConcurrency runs tasks that become ready together on up to workers
// goroutines. Values below 2 keep the sequential scheduler.
func WithConcurrency(workers int) Option {
	return func(e *Engine) {
		e.workers = workers
	}
}

// WithTaskTimeout fails a task whose action runs longer than d.
// Zero disables the timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.taskTimeout = d
	}
}

// WithSkipOnFailedDependency marks a task skipped instead of running it
// when one of its dependencies failed or was skipped.
func WithSkipOnFailedDependency() Option {
	return func(e *Engine) {
		e.skipOnFailedDep = true
	}
}

// WithResetBeforeRun resets every task to pending at the start of each run,
// so a registered workflow can be executed repeatedly.
func WithResetBeforeRun() Option {
	return func(e *Engine) {
		e.resetBeforeRun = true
	}
}

// WithRunIDGenerator overrides how run IDs are generated.
func WithRunIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newRunID = gen
		}
	}
}

func defaultRunID() string {
	return uuid.NewString()
}
