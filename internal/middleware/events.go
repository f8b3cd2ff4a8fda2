package middleware

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	// EventTaskQueued indicates a task was accepted and enqueued.
	EventTaskQueued EventType = "task_queued"
	// EventTaskStarted indicates a worker began executing a task.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task succeeded.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task terminated with an error envelope.
	EventTaskFailed EventType = "task_failed"
	// EventTaskCancelled indicates a task was cancelled.
	EventTaskCancelled EventType = "task_cancelled"
	// EventFlowSelected indicates the coordinator chose a flow for a task.
	EventFlowSelected EventType = "flow_selected"
	// EventKernelRefreshed indicates the kernel handle was rebuilt.
	EventKernelRefreshed EventType = "kernel_refreshed"
	// EventKernelDegraded indicates a rebuild failed and the last good
	// handle is still serving.
	EventKernelDegraded EventType = "kernel_degraded"
	// EventLessonRecorded indicates the recorder appended a lesson.
	EventLessonRecorded EventType = "lesson_recorded"
)

// Event is a structured lifecycle event pushed to external listeners.
type Event struct {
	// Type is the kind of event.
	Type EventType `json:"type"`
	// TaskID is the related task, if applicable.
	TaskID string `json:"task_id,omitempty"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Payload carries event-specific fields.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Listener receives lifecycle events. Delivery is fire-and-forget: a slow
// or failing listener never affects task execution.
type Listener func(Event)

// Broker fans lifecycle events out to registered listeners through a
// buffered channel. When the buffer is full the emit retries briefly and
// then drops the event, counting drops rather than blocking a worker.
type Broker struct {
	events       chan Event
	droppedCount atomic.Uint64

	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]Listener

	done     chan struct{}
	stopOnce sync.Once
}

// NewBroker creates a broker with the given buffer size and starts its
// dispatch loop.
func NewBroker(bufferSize int) *Broker {
	b := &Broker{
		events:    make(chan Event, bufferSize),
		listeners: make(map[uint64]Listener),
		done:      make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers a listener for all subsequent events and returns a
// function that removes it again. Callers with the broker's lifetime may
// discard the return value; per-connection listeners must call it.
func (b *Broker) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Emit publishes an event. If the buffer is full it waits up to 100ms for
// the dispatcher to drain before dropping the event.
func (b *Broker) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case b.events <- event:
		return
	default:
	}

	select {
	case b.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := b.droppedCount.Add(1)
		if count%10 == 1 { // log every 10th drop to avoid spam
			log.Printf("[middleware] WARNING: event buffer full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	case <-b.done:
	}
}

// dispatch delivers events to listeners, isolating listener panics.
func (b *Broker) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case event := <-b.events:
			b.mu.RLock()
			listeners := make([]Listener, 0, len(b.listeners))
			for _, l := range b.listeners {
				listeners = append(listeners, l)
			}
			b.mu.RUnlock()

			for _, l := range listeners {
				b.deliver(l, event)
			}
		}
	}
}

// deliver invokes one listener, recovering from panics so a broken
// listener cannot take down the dispatch loop.
func (b *Broker) deliver(l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[middleware] listener panicked on %s event: %v", event.Type, r)
		}
	}()
	l(event)
}

// DroppedCount returns the total number of dropped events.
func (b *Broker) DroppedCount() uint64 {
	return b.droppedCount.Load()
}

// Close stops the dispatch loop. Events emitted after Close are discarded.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.done) })
}
