package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Runner triggers a dispatch cycle on a fixed interval. Cycles are
// cooperative: a tick that finds a cycle still running is skipped rather
// than queued.
type Runner struct {
	dispatcher *Dispatcher
	interval   time.Duration

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(dispatcher *Dispatcher, interval time.Duration) (*Runner, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher must not be nil")
	}
	return &Runner{
		dispatcher: dispatcher,
		interval:   interval,
		done:       make(chan struct{}),
	}, nil
}

// Start launches the periodic loop. Returns false if already running.
func (r *Runner) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running.Store(true)

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		slog.Info("Dispatch runner started", "interval", r.interval.String())

		r.safeTick(ctx)

		for {
			select {
			case <-ctx.Done():
				slog.Info("Dispatch runner stopping")
				return
			case <-ticker.C:
				r.safeTick(ctx)
			}
		}
	}()

	return true
}

// Stop cancels the loop and waits for an in-flight cycle to finish, so a
// publish attempt is never abandoned between the call and the record write.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running.Load() {
		return false
	}

	r.cancel()
	<-r.done
	r.running.Store(false)

	slog.Info("Dispatch runner stopped")
	return true
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) safeTick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Dispatch cycle panic recovered", "panic", rec)
		}
	}()

	if _, err := r.dispatcher.RunCycle(ctx); err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			slog.Warn("Dispatch cycle still running, tick skipped")
			return
		}
		slog.Error("Dispatch cycle failed", "error", err)
	}
}
