package flow

import (
	"context"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// DirectFlow is the default single generate-and-return strategy.
type DirectFlow struct{}

// NewDirectFlow creates the direct flow.
func NewDirectFlow() *DirectFlow { return &DirectFlow{} }

// Name returns the flow name.
func (f *DirectFlow) Name() models.FlowName { return models.FlowDirect }

// Run generates one response for the task.
func (f *DirectFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	output, err := inv.Kernel.Generate(ctx, inv.Prompt())
	if err != nil {
		return nil, err
	}

	return &models.FlowResult{
		Flow:    f.Name(),
		Output:  output,
		Success: true,
	}, nil
}
