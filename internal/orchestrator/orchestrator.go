// Package orchestrator owns the task lifecycle: admission, the bounded
// multi-class queue, the worker pool, execution through the flow
// coordinator, and terminal bookkeeping.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpieniak01/Venom-sub010/internal/flow"
	"github.com/mpieniak01/Venom-sub010/internal/kernel"
	"github.com/mpieniak01/Venom-sub010/internal/learning"
	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Core drives tasks from submission to a terminal status. One Core serves
// the whole process; workers share the queue and the flow coordinator.
type Core struct {
	records     *state.Records
	sessions    *session.Manager
	kernel      *kernel.Manager
	coordinator *flow.Coordinator
	recorder    *learning.Recorder
	broker      *middleware.Broker

	queue   *queue
	workers int
	now     func() time.Time

	mu      sync.Mutex
	running map[string]*flow.CancelToken
}

// Option configures a Core.
type Option func(*Core)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(c *Core) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueCapacity sets the total queued-task capacity.
func WithQueueCapacity(n int) Option {
	return func(c *Core) {
		c.queue = newQueue(n)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// NewCore creates the orchestrator. recorder and broker may be nil.
func NewCore(
	records *state.Records,
	sessions *session.Manager,
	km *kernel.Manager,
	coordinator *flow.Coordinator,
	recorder *learning.Recorder,
	broker *middleware.Broker,
	opts ...Option,
) *Core {
	c := &Core{
		records:     records,
		sessions:    sessions,
		kernel:      km,
		coordinator: coordinator,
		recorder:    recorder,
		broker:      broker,
		queue:       newQueue(128),
		workers:     4,
		now:         time.Now,
		running:     make(map[string]*flow.CancelToken),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCoordinator installs the flow coordinator. Construction is two-phase
// because the coordinator's selector consults the core for prior failures.
func (c *Core) SetCoordinator(coordinator *flow.Coordinator) {
	c.coordinator = coordinator
}

// Submit validates and enqueues a task, returning the queued record. The
// task is durable and observable from the moment Submit returns.
func (c *Core) Submit(sessionID string, input models.TaskInput, priority models.Priority) (*models.Task, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("empty task text: %w", middleware.ErrInvalidInput)
	}
	if sessionID == "" {
		// Session id is optional at submission; a fresh session is opened
		// for the task and returned on the record.
		sessionID = uuid.New().String()
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("unknown priority %d: %w", priority, middleware.ErrInvalidInput)
	}

	task := &models.Task{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Input:     input,
		Priority:  priority,
		Status:    models.TaskStatusQueued,
		CreatedAt: c.now().UTC(),
	}
	if err := c.records.PutTask(task); err != nil {
		return nil, fmt.Errorf("persist task: %w", err)
	}
	if err := c.queue.Enqueue(task); err != nil {
		return nil, err
	}

	log.Printf("[orchestrator] task %s queued (%s, session %s)", task.ID, task.Priority, sessionID)
	c.emit(middleware.EventTaskQueued, task.ID, map[string]interface{}{
		"priority": task.Priority.String(),
		"session":  sessionID,
	})
	return task, nil
}

// Start runs the worker pool until ctx is cancelled. It blocks; run it in
// a goroutine when the caller has other work.
func (c *Core) Start(ctx context.Context) {
	log.Printf("[orchestrator] starting %d workers (queue capacity %d)", c.workers, c.queue.capacity)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id)
		}(i)
	}
	wg.Wait()
	c.queue.Close()
	log.Printf("[orchestrator] workers stopped")
}

func (c *Core) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.queue.Ready():
			task := c.queue.Dequeue()
			if task == nil {
				// Stale signal from a cancelled queued task.
				continue
			}
			c.execute(ctx, task)
		}
	}
}

// execute drives one task through its flow and writes the terminal record.
func (c *Core) execute(ctx context.Context, task *models.Task) {
	started := c.now().UTC()
	task.Status = models.TaskStatusRunning
	task.StartedAt = &started
	c.persist(task)
	c.emit(middleware.EventTaskStarted, task.ID, nil)

	token := flow.NewCancelToken()
	c.mu.Lock()
	c.running[task.ID] = token
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.running, task.ID)
		c.mu.Unlock()
	}()

	result, err := c.run(ctx, task, token)
	completed := c.now().UTC()
	task.CompletedAt = &completed

	switch {
	case err != nil:
		task.Status = models.TaskStatusFailed
		task.Error = middleware.Wrap(err, "flow:"+string(task.FlowName))
		log.Printf("[orchestrator] task %s failed: %s", task.ID, task.Error.Error())
		c.persist(task)
		c.emit(middleware.EventTaskFailed, task.ID, map[string]interface{}{
			"kind":      string(task.Error.Kind),
			"retryable": task.Error.Retryable,
		})

	case result.Cancelled:
		task.Status = models.TaskStatusCancelled
		log.Printf("[orchestrator] task %s cancelled during %s flow", task.ID, task.FlowName)
		c.persist(task)
		c.emit(middleware.EventTaskCancelled, task.ID, nil)

	case !result.Success:
		task.Status = models.TaskStatusFailed
		task.Error = &models.ErrorEnvelope{
			Kind:      models.ErrKindInternal,
			Message:   fmt.Sprintf("%s flow completed without a usable result", result.Flow),
			Component: "flow:" + string(result.Flow),
		}
		c.persist(task)
		c.emit(middleware.EventTaskFailed, task.ID, map[string]interface{}{
			"kind": string(task.Error.Kind),
		})

	default:
		task.Status = models.TaskStatusSucceeded
		task.Output = c.finalOutput(ctx, task, result.Output)
		c.persist(task)
		if err := c.sessions.RecordOutcome(task.SessionID, task.Output); err != nil {
			log.Printf("[orchestrator] task %s outcome not recorded on session: %v", task.ID, err)
		}
		c.emit(middleware.EventTaskCompleted, task.ID, map[string]interface{}{
			"flow": string(result.Flow),
		})
		if c.recorder != nil {
			c.recorder.MaybeRecord(task, result)
		}
	}
}

// run assembles the invocation and executes the selected flow.
func (c *Core) run(ctx context.Context, task *models.Task, token *flow.CancelToken) (*models.FlowResult, error) {
	block, err := c.sessions.BuildContext(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("build session context: %w", err)
	}
	handle, err := c.kernel.ActiveHandle()
	if err != nil {
		return nil, fmt.Errorf("acquire kernel: %w", err)
	}

	inv := &flow.Invocation{
		Task:    task,
		Context: block,
		Kernel:  handle,
		Cancel:  token,
	}
	return c.coordinator.Execute(ctx, inv)
}

// finalOutput renders the flow output in the session's preferred language
// when one is set. Translation failures degrade to the original text.
func (c *Core) finalOutput(ctx context.Context, task *models.Task, output string) string {
	sess, err := c.sessions.Get(task.SessionID)
	if err != nil {
		return output
	}
	return c.sessions.TranslateIfNeeded(ctx, output, sess)
}

// Cancel requests cancellation of a task. A queued task is removed and
// terminal immediately; a running task has its token fired and reaches
// the cancelled status when its flow yields. Cancelling a terminal or
// unknown task is an error.
func (c *Core) Cancel(taskID string) error {
	if task := c.queue.Remove(taskID); task != nil {
		completed := c.now().UTC()
		task.Status = models.TaskStatusCancelled
		task.CompletedAt = &completed
		c.persist(task)
		log.Printf("[orchestrator] queued task %s cancelled", taskID)
		c.emit(middleware.EventTaskCancelled, taskID, nil)
		return nil
	}

	c.mu.Lock()
	token, running := c.running[taskID]
	c.mu.Unlock()
	if running {
		token.Cancel()
		log.Printf("[orchestrator] cancellation signalled for running task %s", taskID)
		return nil
	}

	task, err := c.records.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("unknown task %s: %w", taskID, middleware.ErrInvalidInput)
	}
	return fmt.Errorf("task %s already %s: %w", taskID, task.Status, middleware.ErrInvalidInput)
}

// Status returns the task record.
func (c *Core) Status(taskID string) (*models.Task, error) {
	task, err := c.records.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("unknown task %s: %w", taskID, middleware.ErrInvalidInput)
	}
	return task, nil
}

// QueueDepth returns the number of tasks waiting for a worker.
func (c *Core) QueueDepth() int {
	return c.queue.Len()
}

// FindFailedMatching returns the session's most recent failed task whose
// input shares significant words with text, or nil. This backs the
// healing predicate.
func (c *Core) FindFailedMatching(sessionID, text string) *models.Task {
	tasks, err := c.records.ListTasks()
	if err != nil {
		log.Printf("[orchestrator] prior-failure lookup: %v", err)
		return nil
	}

	terms := significantWords(text)
	var candidates []*models.Task
	for _, t := range tasks {
		if t.SessionID != sessionID || t.Status != models.TaskStatusFailed {
			continue
		}
		if wordOverlap(terms, t.Input.Text) > 0 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return candidates[0]
}

var _ flow.TaskHistory = (*Core)(nil)

func (c *Core) persist(task *models.Task) {
	if err := c.records.PutTask(task); err != nil {
		log.Printf("[orchestrator] task %s not persisted: %v", task.ID, err)
	}
}

func (c *Core) emit(t middleware.EventType, taskID string, payload map[string]interface{}) {
	if c.broker != nil {
		c.broker.Emit(middleware.Event{Type: t, TaskID: taskID, Payload: payload})
	}
}

func significantWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := fields[:0]
	for _, f := range fields {
		if len(f) >= 4 {
			words = append(words, f)
		}
	}
	return words
}

func wordOverlap(terms []string, text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}
