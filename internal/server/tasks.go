package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironsheep/image-partition-mcp/internal/imaging"
	"github.com/ironsheep/image-partition-mcp/internal/progress"
)

var (
	// ErrTaskNotFound is returned for an unknown task id.
	ErrTaskNotFound = errors.New("server: task not found")
	// ErrTooManyTasks is returned when every retained task is still running.
	ErrTooManyTasks = errors.New("server: too many running tasks")
)

// finishFunc builds a task's result once its Run has returned successfully.
// elapsed is the run time of the task itself.
type finishFunc func(elapsed time.Duration) (interface{}, error)

// task is one async partitioning run.
type task struct {
	id     string
	kind   string
	handle *progress.Handle
	finish finishFunc

	once   sync.Once
	result interface{}
	err    error
}

// outcome returns the task result, building it on the first call after the
// run completes.
func (t *task) outcome() (interface{}, error) {
	t.once.Do(func() {
		if err := t.handle.Err(); err != nil {
			t.err = err
			return
		}
		t.result, t.err = t.finish(t.handle.Elapsed())
	})
	return t.result, t.err
}

func (t *task) done() bool {
	select {
	case <-t.handle.Done():
		return true
	default:
		return false
	}
}

// TaskStatus is the polled state of an async task.
type TaskStatus struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Size      int64       `json:"size"`
	Position  int64       `json:"position"`
	Percent   float64     `json:"percent"`
	Finished  bool        `json:"finished"`
	Done      bool        `json:"done"`
	ElapsedMs int64       `json:"elapsed_ms"`
	Error     string      `json:"error,omitempty"`
	Result    interface{} `json:"result,omitempty"`
}

func (st *TaskStatus) preview() *imaging.EncodedImage {
	if p, ok := st.Result.(previewer); ok {
		return p.preview()
	}
	return nil
}

// TaskRegistry keeps async tasks by id. When full, the oldest completed task
// is dropped to make room; if none has completed, Start fails.
type TaskRegistry struct {
	mu    sync.Mutex
	max   int
	next  atomic.Int64
	order []string
	tasks map[string]*task
}

// NewTaskRegistry creates a registry retaining at most max tasks.
func NewTaskRegistry(max int) *TaskRegistry {
	if max < 1 {
		max = 1
	}
	return &TaskRegistry{
		max:   max,
		tasks: make(map[string]*task),
	}
}

// Start runs t on its own goroutine and registers it under a new id.
// finish is called at most once, after a successful run, to build the result.
func (r *TaskRegistry) Start(kind string, t progress.Task, finish finishFunc) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) >= r.max && !r.evictLocked() {
		return "", fmt.Errorf("%w (limit %d)", ErrTooManyTasks, r.max)
	}

	id := fmt.Sprintf("%s-%d", kind, r.next.Add(1))
	r.tasks[id] = &task{
		id:     id,
		kind:   kind,
		handle: progress.Start(t),
		finish: finish,
	}
	r.order = append(r.order, id)
	return id, nil
}

// evictLocked drops the oldest completed task. It reports false if every
// task is still running.
func (r *TaskRegistry) evictLocked() bool {
	for i, id := range r.order {
		if r.tasks[id].done() {
			delete(r.tasks, id)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return true
		}
	}
	return false
}

// Status returns the state of task id, with its result once it is done.
func (r *TaskRegistry) Status(id string) (*TaskStatus, error) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t.status(true), nil
}

// List returns the state of every task in start order, without results.
func (r *TaskRegistry) List() []*TaskStatus {
	r.mu.Lock()
	tasks := make([]*task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.tasks[id])
	}
	r.mu.Unlock()

	out := make([]*TaskStatus, len(tasks))
	for i, t := range tasks {
		out[i] = t.status(false)
	}
	return out
}

// Len returns the number of retained tasks.
func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (t *task) status(withResult bool) *TaskStatus {
	st := &TaskStatus{
		ID:        t.id,
		Kind:      t.kind,
		Size:      t.handle.Size(),
		Position:  t.handle.Position(),
		Percent:   progress.Percent(t.handle),
		Finished:  t.handle.Finished(),
		ElapsedMs: t.handle.Elapsed().Milliseconds(),
	}
	if !t.done() {
		return st
	}
	st.Done = true

	if !withResult {
		if err := t.handle.Err(); err != nil {
			st.Error = err.Error()
		}
		return st
	}

	result, err := t.outcome()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Result = result
	return st
}
