package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Execution states the coordinator reports per task.
const (
	StateSelecting = "selecting"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// runningState labels an in-flight execution with its flow.
func runningState(name models.FlowName) string {
	return "running:" + string(name)
}

// Coordinator routes a task through selection and execution: the selector
// picks a flow, the coordinator runs it under the wall-clock budget, and
// the uniform result or a normalized error comes back. One coordinator
// serves all workers concurrently.
type Coordinator struct {
	selector *Selector
	broker   *middleware.Broker
	budget   time.Duration

	mu        sync.RWMutex
	flows     map[models.FlowName]Flow
	states    map[string]string
	doneOrder []string
}

// terminalStatesKept bounds how many finished tasks the state map retains.
// Older terminal entries are evicted oldest-first.
const terminalStatesKept = 1024

// NewCoordinator creates a coordinator. budget bounds each execution's
// wall-clock time; zero disables the bound. broker may be nil.
func NewCoordinator(selector *Selector, broker *middleware.Broker, budget time.Duration) *Coordinator {
	return &Coordinator{
		selector: selector,
		broker:   broker,
		budget:   budget,
		flows:    make(map[models.FlowName]Flow),
		states:   make(map[string]string),
	}
}

// Register installs a flow under its name, replacing any previous one.
func (c *Coordinator) Register(f Flow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flows[f.Name()] = f
}

// State returns the coordinator's view of the task's execution state, or
// "" for a task it has never seen.
func (c *Coordinator) State(taskID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[taskID]
}

// Execute selects and runs a flow for the task. The selected flow name is
// written onto the task and announced before execution starts. Budget
// exhaustion fires the cancel token, then surfaces as a timeout error if
// the flow still had work outstanding.
func (c *Coordinator) Execute(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	task := inv.Task
	c.setState(task.ID, StateSelecting)

	sel := c.selector.Select(task, inv.Context)
	task.FlowName = sel.Flow
	inv.Prior = sel.Prior
	log.Printf("[flow] task %s selected flow %s", task.ID, sel.Flow)
	c.emit(middleware.EventFlowSelected, task.ID, map[string]interface{}{
		"flow":      string(sel.Flow),
		"issue_ref": sel.IssueRef,
	})

	c.setState(task.ID, runningState(sel.Flow))
	result, err := c.RunFlow(ctx, sel.Flow, inv)
	if err != nil {
		c.setState(task.ID, StateFailed)
		return nil, err
	}
	c.setState(task.ID, StateCompleted)
	return result, nil
}

// RunFlow executes the named flow directly, applying the wall-clock
// budget. The healing cycle uses this to re-run a prior task's flow.
func (c *Coordinator) RunFlow(ctx context.Context, name models.FlowName, inv *Invocation) (*models.FlowResult, error) {
	c.mu.RLock()
	f, ok := c.flows[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no flow registered for %q: %w", name, middleware.ErrInvalidInput)
	}

	runCtx := ctx
	if c.budget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.budget)
		defer cancel()
	}

	// Fire the token when the budget or caller context expires, so flows
	// polling only the token still stop.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-runCtx.Done():
			inv.Cancel.Cancel()
		case <-stop:
		}
	}()

	result, err := f.Run(runCtx, inv)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (runCtx.Err() == context.DeadlineExceeded && inv.Cancel.Cancelled()) {
			return nil, fmt.Errorf("flow %s exceeded budget %s: %s: %w",
				name, c.budget, err, context.DeadlineExceeded)
		}
		return nil, err
	}
	if result.Cancelled && runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("flow %s exceeded budget %s: %w", name, c.budget, context.DeadlineExceeded)
	}
	return result, nil
}

func (c *Coordinator) setState(taskID, state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[taskID] = state
	if state != StateCompleted && state != StateFailed {
		return
	}
	c.doneOrder = append(c.doneOrder, taskID)
	for len(c.doneOrder) > terminalStatesKept {
		evicted := c.doneOrder[0]
		c.doneOrder = c.doneOrder[1:]
		delete(c.states, evicted)
	}
}

func (c *Coordinator) emit(t middleware.EventType, taskID string, payload map[string]interface{}) {
	if c.broker != nil {
		c.broker.Emit(middleware.Event{Type: t, TaskID: taskID, Payload: payload})
	}
}

// compile-time check: the coordinator serves the healing cycle's runner.
var _ FlowRunner = (*Coordinator)(nil)
