package progress

import (
	"context"
	"sync"
	"time"
)

// Handle tracks a task running on its own goroutine.
//
// The embedded Reporter is the task itself, so callers can poll Size,
// Position and Finished while the task runs.
type Handle struct {
	Reporter

	started time.Time
	done    chan struct{}

	mu      sync.Mutex
	err     error
	elapsed time.Duration
}

// Start runs task on a new goroutine and returns immediately.
//
// The run cannot be interrupted; Wait only bounds how long the caller waits.
func Start(task Task) *Handle {
	h := &Handle{
		Reporter: task,
		started:  time.Now(),
		done:     make(chan struct{}),
	}
	go func() {
		err := task.Run()
		h.mu.Lock()
		h.err = err
		h.elapsed = time.Since(h.started)
		h.mu.Unlock()
		close(h.done)
	}()
	return h
}

// Done returns a channel that is closed once the task's Run returns.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task finishes or ctx is done. It returns the
// task's error, or ctx.Err() if the context ended first.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error returned by the task's Run. It is nil while the
// task is still running.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Elapsed returns the run time so far, or the total run time once done.
func (h *Handle) Elapsed() time.Duration {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.elapsed
	default:
		return time.Since(h.started)
	}
}
