package control

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlane_PauseResume(t *testing.T) {
	p := New(nil)

	if p.IsPaused() {
		t.Error("Should not be paused initially")
	}

	if !p.Pause() {
		t.Error("Pause() should change state")
	}
	if !p.IsPaused() {
		t.Error("Should be paused after Pause()")
	}
	if p.Pause() {
		t.Error("Second Pause() should be a no-op")
	}

	if !p.Resume() {
		t.Error("Resume() should change state")
	}
	if p.IsPaused() {
		t.Error("Should not be paused after Resume()")
	}
	if p.Resume() {
		t.Error("Second Resume() should be a no-op")
	}
}

func TestPlane_WaitIfPaused(t *testing.T) {
	p := New(nil)
	ctx := context.Background()

	// Should return immediately if not paused
	start := time.Now()
	if err := p.WaitIfPaused(ctx); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Error("Should return immediately when not paused")
	}

	// Should block when paused
	p.Pause()
	done := make(chan error, 1)
	go func() {
		done <- p.WaitIfPaused(ctx)
	}()

	select {
	case <-done:
		t.Error("Should be waiting")
	case <-time.After(50 * time.Millisecond):
		// Expected
	}

	// Resume should unblock
	p.Resume()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Should have resumed")
	}
}

func TestPlane_PauseAgainAfterResume(t *testing.T) {
	p := New(nil)
	p.Pause()
	p.Resume()
	p.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := p.WaitIfPaused(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestPlane_CancelUnblocksPausedRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := New(cancel)
	p.Pause()

	done := make(chan error, 1)
	go func() {
		done <- p.WaitIfPaused(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("expected WaitIfPaused to block, got err=%v", err)
	case <-time.After(50 * time.Millisecond):
		// Expected
	}

	if !p.Cancel() {
		t.Fatal("Cancel() should change state")
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected WaitIfPaused to unblock after cancel")
	}
}

func TestPlane_Cancel(t *testing.T) {
	called := 0
	p := New(func() { called++ })

	if p.IsCancelled() {
		t.Error("Should not be cancelled initially")
	}

	p.Cancel()
	p.Cancel()

	if !p.IsCancelled() {
		t.Error("Should be cancelled")
	}
	if called != 1 {
		t.Errorf("cancel func called %d times, want 1", called)
	}
	if p.Pause() {
		t.Error("A cancelled run cannot be paused")
	}
}

func TestPlane_Status(t *testing.T) {
	p := New(nil)

	if s := p.Status(); s.Paused || s.Cancelled {
		t.Errorf("unexpected initial status %+v", s)
	}

	p.Pause()
	if s := p.Status(); !s.Paused {
		t.Error("Status.Paused should be true after pause")
	}

	p.Cancel()
	if s := p.Status(); s.Paused || !s.Cancelled {
		t.Errorf("unexpected status after cancel %+v", s)
	}
}
