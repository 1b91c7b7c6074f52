// Package progress describes long-running image partitioning work in terms
// of an estimated size, a current position and a completion flag.
//
// The progress value (Tracker) is kept separate from execution: an
// algorithm updates its Tracker while it runs, and the caller decides
// whether to call Run directly or hand the task to Start, which runs it on
// its own goroutine.
//
// # Concurrency
//
// A Tracker has exactly one writer (the goroutine executing the task) and
// any number of readers. Position only ever increases, so readers may see a
// slightly stale value but never a value that goes backwards. No locks are
// required to read progress.
package progress

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyRun is returned when Run is invoked more than once on the same task.
var ErrAlreadyRun = errors.New("progress: task has already been run")

// Reporter exposes the progress of a unit of work.
//
// Size is fixed before execution begins and may only be an estimate.
// Finished is defined by the algorithm and is not the same as
// Position() == Size().
type Reporter interface {
	Size() int64
	Position() int64
	Finished() bool
}

// Task is a Reporter that can be executed. Only the first call to Run does
// any work; subsequent calls return ErrAlreadyRun.
type Task interface {
	Reporter
	Run() error
}

// Tracker is the progress value updated by an algorithm while it runs.
//
// The zero value is a tracker of size 0. Use NewTracker to fix a size.
type Tracker struct {
	size     int64
	position atomic.Int64
	finished atomic.Bool
	started  atomic.Bool
}

// NewTracker returns a tracker whose size is fixed to size.
func NewTracker(size int64) *Tracker {
	return &Tracker{size: size}
}

// Size returns the estimated total number of steps.
func (t *Tracker) Size() int64 {
	return t.size
}

// Position returns the number of steps completed so far.
func (t *Tracker) Position() int64 {
	return t.position.Load()
}

// Finished reports whether the algorithm reached its completion point.
func (t *Tracker) Finished() bool {
	return t.finished.Load()
}

// Advance moves the position forward by n steps. Negative n is ignored.
func (t *Tracker) Advance(n int64) {
	if n <= 0 {
		return
	}
	t.position.Add(n)
}

// Set moves the position to pos if pos is ahead of the current position.
func (t *Tracker) Set(pos int64) {
	for {
		cur := t.position.Load()
		if pos <= cur {
			return
		}
		if t.position.CompareAndSwap(cur, pos) {
			return
		}
	}
}

// Complete sets the position to the size and marks the tracker finished.
func (t *Tracker) Complete() {
	t.Set(t.size)
	t.finished.Store(true)
}

// Begin claims the tracker for a run. It returns ErrAlreadyRun if the
// tracker was claimed before.
func (t *Tracker) Begin() error {
	if !t.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	return nil
}

// Percent returns the progress of r in the range 0-100.
//
// A finished reporter is always 100. An unfinished reporter never reports
// more than 99.9, even when its position has reached an estimated size.
func Percent(r Reporter) float64 {
	if r.Finished() {
		return 100
	}
	size := r.Size()
	if size <= 0 {
		return 0
	}
	p := float64(r.Position()) / float64(size) * 100
	if p > 99.9 {
		p = 99.9
	}
	return p
}
