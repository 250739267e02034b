// Package worker runs fire-and-forget background tasks detached from the request
// or sync that submitted them.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/metrics"
)

// Task is a unit of background work. Its error is logged, never returned to the
// submitter.
type Task func(ctx context.Context) error

// Submitter accepts background tasks.
type Submitter interface {
	Submit(name string, task Task, fields ...zap.Field)
}

// Runner executes each task in its own goroutine with a fresh context bounded by
// timeout. Panics are recovered and logged.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a runner. A zero timeout means tasks run without a deadline.
func NewRunner(logger *zap.Logger, timeout time.Duration) *Runner {
	return &Runner{
		logger:  logger.Named("worker"),
		timeout: timeout,
	}
}

// Timeout returns the deadline given to each task, zero when unbounded.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Submit starts task in the background. Tasks submitted after Shutdown are dropped.
func (r *Runner) Submit(name string, task Task, fields ...zap.Field) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("Dropping task submitted after shutdown", append(fields, zap.String("task", name))...)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(name, task, fields)
}

func (r *Runner) run(name string, task Task, fields []zap.Field) {
	defer r.wg.Done()

	metrics.BackgroundTasksInFlight.Inc()
	defer metrics.BackgroundTasksInFlight.Dec()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logFields := append([]zap.Field{zap.String("task", name)}, fields...)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return task(ctx)
	}()

	if err != nil {
		r.logger.Error("Background task failed",
			append(logFields, zap.Duration("elapsed", time.Since(start)), zap.Error(err))...)
		return
	}
	r.logger.Debug("Background task completed",
		append(logFields, zap.Duration("elapsed", time.Since(start)))...)
}

// Shutdown stops accepting tasks and waits for running ones until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every submitted task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
