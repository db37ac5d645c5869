package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_InvalidArgs(t *testing.T) {
	t.Parallel()

	t.Run("interval must be > 0", func(t *testing.T) {
		t.Parallel()

		s, err := New(0, func(context.Context, time.Time) {})
		if err == nil {
			t.Fatalf("expected error, got nil")
		}
		if s != nil {
			t.Fatalf("expected nil scheduler, got %#v", s)
		}
	})

	t.Run("sweep must not be nil", func(t *testing.T) {
		t.Parallel()

		s, err := New(100*time.Millisecond, nil)
		if err == nil {
			t.Fatalf("expected error, got nil")
		}
		if s != nil {
			t.Fatalf("expected nil scheduler, got %#v", s)
		}
	})
}

func TestScheduler_StartStop_Basics(t *testing.T) {
	var sweeps atomic.Int64

	s, err := New(10*time.Millisecond, func(context.Context, time.Time) {
		sweeps.Add(1)
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if s.IsRunning() {
		t.Fatalf("expected scheduler not running initially")
	}

	if ok := s.Start(); !ok {
		t.Fatalf("expected Start() true on first call")
	}
	if !s.IsRunning() {
		t.Fatalf("expected scheduler running after Start()")
	}
	if ok := s.Start(); ok {
		t.Fatalf("expected Start() false when already running")
	}

	// There is an immediate sweep on Start().
	waitForAtLeast(t, &sweeps, 1, 500*time.Millisecond)

	if ok := s.Stop(); !ok {
		t.Fatalf("expected Stop() true on first call")
	}
	if s.IsRunning() {
		t.Fatalf("expected scheduler not running after Stop()")
	}
	if ok := s.Stop(); ok {
		t.Fatalf("expected Stop() false when already stopped")
	}
}

func TestScheduler_DoesNotSweepAfterStop(t *testing.T) {
	var sweeps atomic.Int64

	s, err := New(10*time.Millisecond, func(context.Context, time.Time) {
		sweeps.Add(1)
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if ok := s.Start(); !ok {
		t.Fatalf("expected Start() true")
	}

	waitForAtLeast(t, &sweeps, 2, 750*time.Millisecond)
	beforeStop := sweeps.Load()

	if ok := s.Stop(); !ok {
		t.Fatalf("expected Stop() true")
	}

	time.Sleep(100 * time.Millisecond)
	if after := sweeps.Load(); after != beforeStop {
		t.Fatalf("expected no sweeps after Stop; before=%d after=%d", beforeStop, after)
	}
}

func TestScheduler_SweepReceivesWallClock(t *testing.T) {
	var gotNow atomic.Int64

	s, err := New(10*time.Second, func(_ context.Context, now time.Time) {
		gotNow.Store(now.UnixNano())
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	before := time.Now()
	if ok := s.Start(); !ok {
		t.Fatalf("expected Start() true")
	}
	defer s.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for gotNow.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweep did not run in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := time.Unix(0, gotNow.Load())
	if got.Before(before) || got.After(time.Now()) {
		t.Fatalf("sweep now=%v outside expected window", got)
	}
}

func TestScheduler_PanicInSweepIsRecoveredAndContinues(t *testing.T) {
	var sweeps atomic.Int64
	var panicked atomic.Bool

	s, err := New(10*time.Millisecond, func(context.Context, time.Time) {
		if panicked.CompareAndSwap(false, true) {
			panic("boom")
		}
		sweeps.Add(1)
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if ok := s.Start(); !ok {
		t.Fatalf("expected Start() true")
	}
	defer s.Stop()

	// If the panic is recovered the scheduler keeps sweeping.
	waitForAtLeast(t, &sweeps, 1, 750*time.Millisecond)
}

// waitForAtLeast waits until sweeps >= n or fails the test after timeout.
// Uses polling to avoid test flakes across CI.
func waitForAtLeast(t *testing.T, sweeps *atomic.Int64, n int64, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if sweeps.Load() >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for sweeps >= %d (got %d)", n, sweeps.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
