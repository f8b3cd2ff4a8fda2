package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// reviewApprovalMarker is the reviewer's approval signal. The reviewer
// prompt instructs the model to lead with it when the draft passes.
const reviewApprovalMarker = "APPROVED"

// ReviewFlow is the code-generation strategy: a generate-review-revise
// loop bounded by a maximum iteration count, terminating early on
// reviewer approval.
type ReviewFlow struct {
	maxIterations int
}

// NewReviewFlow creates a review flow bounded by maxIterations rounds.
func NewReviewFlow(maxIterations int) *ReviewFlow {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &ReviewFlow{maxIterations: maxIterations}
}

// Name returns the flow name.
func (f *ReviewFlow) Name() models.FlowName { return models.FlowReview }

// Run drives the generate-review-revise loop. The cancel token is polled
// at every loop iteration boundary.
func (f *ReviewFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	base := inv.Prompt()

	var draft string
	var feedback string
	iterations := 0

	for i := 0; i < f.maxIterations; i++ {
		if inv.Cancel.Cancelled() {
			return cancelledResult(f.Name()), nil
		}
		iterations = i + 1

		prompt := base + "\nProduce the requested code. Output only the code and a short rationale."
		if draft != "" {
			prompt = fmt.Sprintf("%s\nRevise the draft below to address the review feedback.\n\nDraft:\n%s\n\nFeedback:\n%s", base, draft, feedback)
		}

		out, err := inv.Kernel.Generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		draft = out

		if inv.Cancel.Cancelled() {
			return cancelledResult(f.Name()), nil
		}

		review, err := inv.Kernel.Generate(ctx, f.reviewPrompt(base, draft))
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToUpper(review), reviewApprovalMarker) {
			return f.result(draft, iterations, true), nil
		}
		feedback = review
	}

	// Iteration budget exhausted without approval: surface the last draft
	// but flag the outcome for the meta-learning recorder.
	res := f.result(draft, iterations, true)
	res.Metadata.LessonWorthy = true
	return res, nil
}

func (f *ReviewFlow) reviewPrompt(base, draft string) string {
	return fmt.Sprintf(
		"%s\nYou are the reviewer. If the draft below fully satisfies the request, reply with the single word %s. Otherwise list the concrete problems to fix.\n\nDraft:\n%s",
		base, reviewApprovalMarker, draft,
	)
}

func (f *ReviewFlow) result(output string, iterations int, success bool) *models.FlowResult {
	return &models.FlowResult{
		Flow:    f.Name(),
		Output:  output,
		Success: success,
		Metadata: models.FlowMetadata{
			ReviewIterations: iterations,
		},
	}
}
