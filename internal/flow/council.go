package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// councilPerspectives seed the parallel candidates with distinct angles.
// With more candidates than perspectives the list wraps around.
var councilPerspectives = []string{
	"Answer pragmatically, optimizing for the simplest workable approach.",
	"Answer critically, focusing on risks, edge cases, and what could go wrong.",
	"Answer creatively, proposing a less obvious alternative worth considering.",
	"Answer rigorously, grounding every claim in first principles.",
}

// CouncilFlow runs several parallel candidate generations and a synthesis
// step. All fan-out branches are joined before returning; partial results
// are never surfaced.
type CouncilFlow struct {
	size int
}

// NewCouncilFlow creates a council flow with the given candidate count.
func NewCouncilFlow(size int) *CouncilFlow {
	if size < 2 {
		size = 2
	}
	return &CouncilFlow{size: size}
}

// Name returns the flow name.
func (f *CouncilFlow) Name() models.FlowName { return models.FlowCouncil }

// Run fans out candidate generations, ranks them, and synthesizes the
// final answer from the winning candidate's angle.
func (f *CouncilFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	base := inv.Prompt()
	candidates := make([]string, f.size)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < f.size; i++ {
		i := i
		g.Go(func() error {
			perspective := councilPerspectives[i%len(councilPerspectives)]
			out, err := inv.Kernel.Generate(gctx, base+"\n"+perspective)
			if err != nil {
				return fmt.Errorf("council candidate %d: %w", i+1, err)
			}
			candidates[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Council round boundary: check the token between fan-out and synthesis.
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	votes, winner := f.rank(ctx, inv, candidates)

	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	synthesis, err := inv.Kernel.Generate(ctx, f.synthesisPrompt(base, candidates, winner))
	if err != nil {
		return nil, err
	}

	return &models.FlowResult{
		Flow:    f.Name(),
		Output:  synthesis,
		Success: true,
		Metadata: models.FlowMetadata{
			CouncilVotes: votes,
		},
	}, nil
}

// rank asks the kernel to pick the strongest candidate. A malformed or
// failed ranking falls back to the first candidate; the council still
// synthesizes, it just loses the tally signal.
func (f *CouncilFlow) rank(ctx context.Context, inv *Invocation, candidates []string) (map[string]int, int) {
	var b strings.Builder
	b.WriteString("Pick the strongest answer. Reply with only its number.\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "\nAnswer %d:\n%s\n", i+1, c)
	}

	votes := make(map[string]int, len(candidates))
	for i := range candidates {
		votes[candidateLabel(i)] = 0
	}

	winner := 0
	reply, err := inv.Kernel.Generate(ctx, b.String())
	if err == nil {
		if n, perr := strconv.Atoi(strings.TrimSpace(strings.Trim(reply, "."))); perr == nil && n >= 1 && n <= len(candidates) {
			winner = n - 1
		}
	}
	votes[candidateLabel(winner)]++
	return votes, winner
}

func (f *CouncilFlow) synthesisPrompt(base string, candidates []string, winner int) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\nSynthesize a single final answer from the council's candidates below. ")
	fmt.Fprintf(&b, "Candidate %d was voted strongest; prefer its approach but fold in valid points from the others.\n", winner+1)
	for i, c := range candidates {
		fmt.Fprintf(&b, "\nCandidate %d:\n%s\n", i+1, c)
	}
	return b.String()
}

func candidateLabel(i int) string {
	return fmt.Sprintf("candidate-%d", i+1)
}
