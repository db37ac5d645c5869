// Package scheduler drives the periodic reminder sweep: plan upcoming
// reminders, then dispatch everything due. The same sweep can also be
// triggered manually through the API; both paths share one function.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SweepFunc runs one full sweep at the given wall-clock instant.
type SweepFunc func(ctx context.Context, now time.Time)

type Scheduler struct {
	interval time.Duration
	sweep    SweepFunc

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, sweep SweepFunc) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if sweep == nil {
		return nil, errors.New("sweep must not be nil")
	}
	return &Scheduler{
		interval: interval,
		sweep:    sweep,
		done:     make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("reminder sweep scheduler started", "interval", s.interval.String())

		s.safeSweep(ctx)

		for {
			select {
			case <-ctx.Done():
				slog.Info("reminder sweep scheduler stopping")
				return
			case <-ticker.C:
				s.safeSweep(ctx)
			}
		}
	}()

	return true
}

func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	slog.Info("reminder sweep scheduler stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) safeSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("reminder sweep panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	s.sweep(ctx, start)
	slog.Info("reminder sweep completed", "duration_ms", time.Since(start).Milliseconds())
}
