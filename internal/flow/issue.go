package flow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Issue is a fetched issue-tracker record.
type Issue struct {
	// Ref is the reference the issue was fetched by, e.g. "#42" or "VEN-7".
	Ref string
	// Title is the issue title.
	Title string
	// Body is the issue description.
	Body string
}

// IssueTracker fetches issue records by reference. The zero
// implementation is optional; without a tracker the flow works from the
// reference and the request text alone.
type IssueTracker interface {
	// Fetch retrieves the issue behind ref.
	Fetch(ctx context.Context, ref string) (*Issue, error)
}

// IssueFlow resolves an issue reference: it fetches the issue when a
// tracker is configured, then asks the kernel to propose a resolution
// grounded in the issue's content.
type IssueFlow struct {
	tracker IssueTracker
}

// NewIssueFlow creates an issue flow. tracker may be nil.
func NewIssueFlow(tracker IssueTracker) *IssueFlow {
	return &IssueFlow{tracker: tracker}
}

// Name returns the flow name.
func (f *IssueFlow) Name() models.FlowName { return models.FlowIssue }

// Run proposes a resolution for the referenced issue. A tracker fetch
// failure degrades to working from the request text; it does not fail
// the task.
func (f *IssueFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	ref := issueRefPattern.FindString(inv.Task.Input.Text)
	if ref == "" {
		ref = inv.Task.Input.Intent["issue"]
	}

	var issue *Issue
	if f.tracker != nil && ref != "" {
		fetched, err := f.tracker.Fetch(ctx, ref)
		if err != nil {
			log.Printf("[flow:issue] fetch %s failed, proceeding from request text: %v", ref, err)
		} else {
			issue = fetched
		}
	}
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	output, err := inv.Kernel.Generate(ctx, f.resolutionPrompt(inv, ref, issue))
	if err != nil {
		return nil, fmt.Errorf("propose resolution for %s: %w", ref, err)
	}

	return &models.FlowResult{
		Flow:     f.Name(),
		Output:   output,
		Success:  true,
		Metadata: models.FlowMetadata{IssueRef: ref},
	}, nil
}

func (f *IssueFlow) resolutionPrompt(inv *Invocation, ref string, issue *Issue) string {
	var b strings.Builder
	b.WriteString(inv.Prompt())
	if issue != nil {
		fmt.Fprintf(&b, "\nIssue %s: %s\n%s\n", issue.Ref, issue.Title, issue.Body)
	} else if ref != "" {
		fmt.Fprintf(&b, "\nThe request references issue %s; the tracker record is unavailable.\n", ref)
	}
	b.WriteString("\nPropose a concrete resolution for the issue above: the root cause as you understand it, the change to make, and how to verify it.")
	return b.String()
}
