// Package control pauses, resumes and cancels a workflow run between tasks.
package control

import (
	"context"
	"sync"
	"sync/atomic"
)

// Plane controls one run. Pausing never interrupts a running task; it
// holds the scheduler before the next task or wave starts.
type Plane struct {
	mu        sync.RWMutex
	paused    atomic.Bool
	cancelled atomic.Bool
	resumeCh  chan struct{}
	cancel    context.CancelFunc
}

// New creates a Plane. cancel is called by Cancel and may be nil.
func New(cancel context.CancelFunc) *Plane {
	return &Plane{
		resumeCh: make(chan struct{}),
		cancel:   cancel,
	}
}

// Pause holds the run before its next task. It reports whether the state
// changed.
func (p *Plane) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled.Load() {
		return false
	}
	return p.paused.CompareAndSwap(false, true)
}

// Resume releases a paused run. It reports whether the state changed.
func (p *Plane) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused.CompareAndSwap(true, false) {
		return false
	}
	close(p.resumeCh)
	p.resumeCh = make(chan struct{})
	return true
}

// Cancel stops the run. Tasks in flight see their context cancelled and a
// paused run is released.
func (p *Plane) Cancel() bool {
	if !p.cancelled.CompareAndSwap(false, true) {
		return false
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.Resume()
	return true
}

// IsPaused returns true if the run is paused.
func (p *Plane) IsPaused() bool {
	return p.paused.Load()
}

// IsCancelled returns true if the run was cancelled.
func (p *Plane) IsCancelled() bool {
	return p.cancelled.Load()
}

// WaitIfPaused blocks while the run is paused. It returns ctx.Err() if ctx
// ends first.
func (p *Plane) WaitIfPaused(ctx context.Context) error {
	for {
		p.mu.RLock()
		paused, resumeCh := p.paused.Load(), p.resumeCh
		p.mu.RUnlock()
		if !paused {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resumeCh:
		}
	}
}

// Status is a snapshot of the control state.
type Status struct {
	Paused    bool `json:"paused"`
	Cancelled bool `json:"cancelled"`
}

// Status returns the current control state.
func (p *Plane) Status() Status {
	return Status{
		Paused:    p.paused.Load(),
		Cancelled: p.cancelled.Load(),
	}
}
