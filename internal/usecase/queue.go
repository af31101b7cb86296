package usecase

import (
	"sync"

	"github.com/google/uuid"
)

// State is the mutation state of a sync manager.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

type task struct {
	id   string
	name string
	run  func(id string)
}

// taskQueue runs tasks one at a time, in submission order, on a single worker goroutine.
// Tasks are never dropped: Close waits for the queue to drain.
type taskQueue struct {
	mu      sync.Mutex
	tasks   []task
	active  bool
	closed  bool
	signal  chan struct{} // buffered, size 1; coalesces wakeups
	stopped chan struct{}
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		tasks:   make([]task, 0, 16),
		signal:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.work()
	return q
}

// Enqueue appends fn and returns the task id fn will receive, or false once the queue is closed.
func (q *taskQueue) Enqueue(name string, fn func(id string)) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", false
	}
	t := task{id: uuid.NewString(), name: name, run: fn}
	q.tasks = append(q.tasks, t)
	q.notify()
	return t.id, true
}

// State reports whether a task is running.
func (q *taskQueue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active {
		return StateActive
	}
	return StateIdle
}

// Len returns the number of tasks waiting behind the active one.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close rejects new tasks and blocks until every queued task has run.
func (q *taskQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.notify()
	}
	q.mu.Unlock()
	<-q.stopped
}

func (q *taskQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *taskQueue) next() (task, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		q.active = false
		return task{}, false, q.closed
	}
	t := q.tasks[0]
	q.tasks[0] = task{}
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	q.active = true
	return t, true, false
}

func (q *taskQueue) work() {
	defer close(q.stopped)
	for {
		t, ok, closed := q.next()
		if ok {
			t.run(t.id)
			continue
		}
		if closed {
			return
		}
		<-q.signal
	}
}
