package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// FlowRunner re-invokes a registered flow by name. The coordinator
// implements it; the healing cycle uses it to re-run the original flow.
type FlowRunner interface {
	RunFlow(ctx context.Context, name models.FlowName, inv *Invocation) (*models.FlowResult, error)
}

// HealingFlow re-runs a previously failed task's flow with the prior
// error envelope injected as additional context, bounded by a retry cap
// with exponential backoff between attempts.
type HealingFlow struct {
	runner      FlowRunner
	maxRetries  int
	backoffBase time.Duration
}

// NewHealingFlow creates a healing cycle.
func NewHealingFlow(runner FlowRunner, maxRetries int, backoffBase time.Duration) *HealingFlow {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &HealingFlow{runner: runner, maxRetries: maxRetries, backoffBase: backoffBase}
}

// Name returns the flow name.
func (f *HealingFlow) Name() models.FlowName { return models.FlowHealing }

// Run retries the original flow until it succeeds or the retry cap is
// reached. The cancel token is polled before each attempt and during
// backoff waits.
func (f *HealingFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	target := models.FlowDirect
	if inv.Prior != nil && inv.Prior.FlowName != "" && inv.Prior.FlowName != models.FlowHealing {
		target = inv.Prior.FlowName
	}

	// The envelope must reach the re-run flow's prompt on both prompt
	// paths: the assembled context block when one exists, and the raw
	// task text otherwise.
	healInv := *inv
	if inv.Prior != nil && inv.Prior.Error != nil {
		healInv.Task = f.taskWithEnvelope(inv.Task, inv.Prior)
		if inv.Context != nil {
			healInv.Context = f.contextWithEnvelope(inv.Context, inv.Prior)
		}
	}

	var lastErr error
	backoff := f.backoffBase

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if inv.Cancel.Cancelled() {
			return cancelledResult(f.Name()), nil
		}

		result, err := f.runner.RunFlow(ctx, target, &healInv)
		if err == nil && result != nil {
			if result.Cancelled {
				return cancelledResult(f.Name()), nil
			}
			if result.Success {
				return &models.FlowResult{
					Flow:    f.Name(),
					Output:  result.Output,
					Success: true,
					Metadata: models.FlowMetadata{
						HealingAttempts: attempt,
						// A healed failure is exactly what the lesson log
						// exists to capture.
						LessonWorthy: true,
					},
				}, nil
			}
		}
		if err != nil {
			lastErr = err
		}

		if attempt == f.maxRetries {
			break
		}
		select {
		case <-inv.Cancel.Done():
			return cancelledResult(f.Name()), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr != nil {
		return nil, fmt.Errorf("healing cycle exhausted after %d attempts: %w", f.maxRetries, lastErr)
	}
	return &models.FlowResult{
		Flow:     f.Name(),
		Success:  false,
		Metadata: models.FlowMetadata{HealingAttempts: f.maxRetries},
	}, nil
}

// taskWithEnvelope copies the task with the prior failure's envelope
// injected into the input text, so the re-run flow sees what went wrong.
func (f *HealingFlow) taskWithEnvelope(task *models.Task, prior *models.Task) *models.Task {
	clone := *task
	clone.Input.Text = task.Input.Text + "\n\n" + envelopeNote(prior)
	return &clone
}

// contextWithEnvelope copies the context block with the prior failure
// appended as a final turn, so flows rendering the block see it too.
func (f *HealingFlow) contextWithEnvelope(block *session.ContextBlock, prior *models.Task) *session.ContextBlock {
	clone := *block
	clone.Turns = make([]models.Turn, len(block.Turns), len(block.Turns)+1)
	copy(clone.Turns, block.Turns)
	clone.Turns = append(clone.Turns, models.Turn{
		Role:    models.RoleUser,
		Content: envelopeNote(prior),
	})
	return &clone
}

func envelopeNote(prior *models.Task) string {
	return fmt.Sprintf(
		"A previous attempt at this work failed with %s: %s. Address that failure in your answer.",
		prior.Error.Kind, prior.Error.Message,
	)
}
