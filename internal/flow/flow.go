// Package flow implements the strategy-selection and execution-routing
// state machine: a pure selector chooses a named flow for each task, and
// the coordinator drives that flow to completion within a wall-clock
// budget.
package flow

import (
	"context"

	"github.com/mpieniak01/Venom-sub010/internal/kernel"
	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Invocation bundles everything a flow needs for one execution. The kernel
// handle and cancel token are injected explicitly; flows never reach for
// ambient state.
type Invocation struct {
	// Task is the task being executed. The flow owns mutation while running.
	Task *models.Task
	// Context is the bounded session context assembled for the task.
	Context *session.ContextBlock
	// Kernel is the materialized kernel handle to generate with.
	Kernel *kernel.Handle
	// Cancel is the one-shot cancellation signal for this execution.
	Cancel *CancelToken
	// Prior is the matched previously-failed task, set when the selector
	// resolved a healing cycle.
	Prior *models.Task
}

// Prompt renders the invocation's context plus the task input as the base
// prompt for generation.
func (inv *Invocation) Prompt() string {
	if inv.Context != nil {
		return inv.Context.Prompt()
	}
	return models.RoleUser + ": " + inv.Task.Input.Text + "\n"
}

// Flow is a named execution strategy. Run must poll the invocation's
// cancel token at iteration boundaries, join any internal fan-out before
// returning, and let infrastructure errors bubble up unhandled.
type Flow interface {
	// Name returns the flow's registered name.
	Name() models.FlowName
	// Run executes the task and returns the uniform result.
	Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error)
}

// cancelledResult is the uniform early-exit result for a set token.
func cancelledResult(name models.FlowName) *models.FlowResult {
	return &models.FlowResult{Flow: name, Cancelled: true}
}
