package orchestrator

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// queue is the bounded multi-class task queue. Dequeue drains the highest
// non-empty class first; within a class order is FIFO by enqueue time.
// Capacity spans all classes; a full queue rejects instead of blocking.
type queue struct {
	mu       sync.Mutex
	classes  [models.PriorityCritical + 1]*list.List
	size     int
	capacity int
	ready    chan struct{}
	closed   bool
}

func newQueue(capacity int) *queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &queue{
		capacity: capacity,
		// One slot per possible task so a ready signal is never lost.
		ready: make(chan struct{}, capacity),
	}
	for i := range q.classes {
		q.classes[i] = list.New()
	}
	return q
}

// Enqueue adds the task to its class, or rejects at capacity.
func (q *queue) Enqueue(task *models.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue closed: %w", middleware.ErrQueueSaturated)
	}
	if q.size >= q.capacity {
		return fmt.Errorf("queue at capacity %d: %w", q.capacity, middleware.ErrQueueSaturated)
	}
	q.classes[task.Priority].PushBack(task)
	q.size++
	// A full ready buffer already holds one wakeup per possible queued
	// task, so dropping the signal here loses nothing.
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue removes and returns the oldest task in the highest non-empty
// class, or nil when the queue is empty.
func (q *queue) Dequeue() *models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for class := len(q.classes) - 1; class >= 0; class-- {
		if front := q.classes[class].Front(); front != nil {
			q.classes[class].Remove(front)
			q.size--
			return front.Value.(*models.Task)
		}
	}
	return nil
}

// Remove deletes a queued task by id. Returns the removed task, or nil
// when the task is not queued.
func (q *queue) Remove(taskID string) *models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, class := range q.classes {
		for e := class.Front(); e != nil; e = e.Next() {
			task := e.Value.(*models.Task)
			if task.ID == taskID {
				class.Remove(e)
				q.size--
				return task
			}
		}
	}
	return nil
}

// Len returns the number of queued tasks across all classes.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Ready returns the channel workers wait on for enqueued work. A removed
// task leaves a stale signal behind; workers treat an empty dequeue as a
// no-op.
func (q *queue) Ready() <-chan struct{} {
	return q.ready
}

// Close stops further enqueues.
func (q *queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
