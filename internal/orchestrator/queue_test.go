package orchestrator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

func queuedTask(id string, p models.Priority) *models.Task {
	return &models.Task{ID: id, Priority: p, Status: models.TaskStatusQueued}
}

func TestQueueDrainsHigherClassesFirst(t *testing.T) {
	q := newQueue(10)
	for _, task := range []*models.Task{
		queuedTask("low-1", models.PriorityLow),
		queuedTask("norm-1", models.PriorityNormal),
		queuedTask("crit-1", models.PriorityCritical),
		queuedTask("norm-2", models.PriorityNormal),
		queuedTask("high-1", models.PriorityHigh),
	} {
		if err := q.Enqueue(task); err != nil {
			t.Fatalf("Enqueue(%s): %v", task.ID, err)
		}
	}

	want := []string{"crit-1", "high-1", "norm-1", "norm-2", "low-1"}
	for i, id := range want {
		got := q.Dequeue()
		if got == nil || got.ID != id {
			t.Fatalf("dequeue %d = %v, want %s", i, got, id)
		}
	}
	if got := q.Dequeue(); got != nil {
		t.Fatalf("dequeue on empty queue = %v, want nil", got)
	}
}

func TestQueueFIFOWithinClass(t *testing.T) {
	q := newQueue(10)
	for i := 0; i < 5; i++ {
		if err := q.Enqueue(queuedTask(fmt.Sprintf("n-%d", i), models.PriorityNormal)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		if got := q.Dequeue(); got.ID != fmt.Sprintf("n-%d", i) {
			t.Fatalf("dequeue %d = %s, want n-%d", i, got.ID, i)
		}
	}
}

func TestQueueRejectsAtCapacity(t *testing.T) {
	q := newQueue(2)
	if err := q.Enqueue(queuedTask("a", models.PriorityNormal)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(queuedTask("b", models.PriorityCritical)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	err := q.Enqueue(queuedTask("c", models.PriorityCritical))
	if !errors.Is(err, middleware.ErrQueueSaturated) {
		t.Fatalf("err = %v, want queue saturated", err)
	}
	// Capacity spans classes; priority does not bypass the bound.
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
}

func TestQueueRemove(t *testing.T) {
	q := newQueue(5)
	q.Enqueue(queuedTask("a", models.PriorityNormal))
	q.Enqueue(queuedTask("b", models.PriorityNormal))

	if got := q.Remove("a"); got == nil || got.ID != "a" {
		t.Fatalf("Remove(a) = %v", got)
	}
	if got := q.Remove("a"); got != nil {
		t.Fatalf("second Remove(a) = %v, want nil", got)
	}
	if got := q.Dequeue(); got.ID != "b" {
		t.Fatalf("dequeue = %s, want b", got.ID)
	}
}
