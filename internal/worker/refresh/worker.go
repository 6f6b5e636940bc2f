package refresh

import (
	"context"
	"log/slog"
	"time"
)

const defaultInterval = 15 * time.Second

// trigger schedules a board reload. Triggers are coalesced by the receiver.
type trigger interface {
	Refresh()
}

// Worker drives periodic board reloads. It only fires triggers; the board
// service owns the fetch-and-merge cycle, so a tick landing while a load is
// in flight collapses into the single pending re-run.
type Worker struct {
	trigger  trigger
	interval time.Duration
	stopCh   chan struct{}
}

// NewWorker creates a new auto-refresh worker.
func NewWorker(t trigger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Worker{
		trigger:  t,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins ticking. It blocks until the context is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Auto-refresh worker started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Auto-refresh worker shutting down")
			return
		case <-w.stopCh:
			slog.Info("Auto-refresh worker stopped")
			return
		case <-ticker.C:
			w.trigger.Refresh()
		}
	}
}

// Stop stops the worker. Must be called at most once; the board service
// guards repeated stops.
func (w *Worker) Stop() {
	close(w.stopCh)
}
