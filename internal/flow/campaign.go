package flow

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// RoadmapStep is one named unit of campaign work.
type RoadmapStep struct {
	// Name labels the step in output and events.
	Name string `yaml:"name"`
	// Prompt is the instruction executed for this step.
	Prompt string `yaml:"prompt"`
}

// Roadmap is a multi-step plan loaded from YAML.
type Roadmap struct {
	// Goal states what the campaign is working toward.
	Goal string `yaml:"goal"`
	// Steps are executed in order.
	Steps []RoadmapStep `yaml:"steps"`
}

// LoadRoadmap reads and validates a roadmap file.
func LoadRoadmap(path string) (*Roadmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roadmap %s: %w", path, err)
	}
	var rm Roadmap
	if err := yaml.Unmarshal(data, &rm); err != nil {
		return nil, fmt.Errorf("parse roadmap %s: %w", path, err)
	}
	if err := rm.Validate(); err != nil {
		return nil, fmt.Errorf("roadmap %s: %w", path, err)
	}
	return &rm, nil
}

// Validate checks the roadmap has a goal and at least one runnable step.
func (rm *Roadmap) Validate() error {
	if strings.TrimSpace(rm.Goal) == "" {
		return fmt.Errorf("missing goal: %w", middleware.ErrInvalidInput)
	}
	if len(rm.Steps) == 0 {
		return fmt.Errorf("no steps: %w", middleware.ErrInvalidInput)
	}
	for i, step := range rm.Steps {
		if strings.TrimSpace(step.Prompt) == "" {
			return fmt.Errorf("step %d (%s) has no prompt: %w", i+1, step.Name, middleware.ErrInvalidInput)
		}
	}
	return nil
}

// Gate decides whether an autonomous campaign may proceed to its next
// step. A nil gate means unrestricted autonomy.
type Gate interface {
	// Allow reports whether the named step may run. A false return stops
	// the campaign cleanly after the steps already completed.
	Allow(ctx context.Context, stepName string) bool
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, stepName string) bool

// Allow calls the wrapped function.
func (f GateFunc) Allow(ctx context.Context, stepName string) bool { return f(ctx, stepName) }

// CampaignFlow walks a roadmap step by step, feeding each step the
// accumulated results of the previous ones. Step count is bounded and
// each step passes the autonomy gate before running.
type CampaignFlow struct {
	loadRoadmap func(task *models.Task) (*Roadmap, error)
	gate        Gate
	maxSteps    int
}

// NewCampaignFlow creates a campaign flow. defaultPath is the roadmap
// used when the task's intent carries no "roadmap" override; gate may be
// nil.
func NewCampaignFlow(defaultPath string, gate Gate, maxSteps int) *CampaignFlow {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &CampaignFlow{
		loadRoadmap: func(task *models.Task) (*Roadmap, error) {
			path := defaultPath
			if override := task.Input.Intent["roadmap"]; override != "" {
				path = override
			}
			if path == "" {
				return nil, fmt.Errorf("no roadmap configured: %w", middleware.ErrInvalidInput)
			}
			return LoadRoadmap(path)
		},
		gate:     gate,
		maxSteps: maxSteps,
	}
}

// Name returns the flow name.
func (f *CampaignFlow) Name() models.FlowName { return models.FlowCampaign }

// Run executes roadmap steps in order. The cancel token is polled before
// each step; a stopped gate or a hit step cap ends the campaign cleanly
// with the work done so far.
func (f *CampaignFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	rm, err := f.loadRoadmap(inv.Task)
	if err != nil {
		return nil, err
	}

	steps := rm.Steps
	if len(steps) > f.maxSteps {
		steps = steps[:f.maxSteps]
	}

	var transcript strings.Builder
	fmt.Fprintf(&transcript, "Campaign: %s\n", rm.Goal)

	completed := 0
	for i, step := range steps {
		if inv.Cancel.Cancelled() {
			result := cancelledResult(f.Name())
			result.Output = transcript.String()
			result.Metadata.CampaignSteps = completed
			return result, nil
		}
		if f.gate != nil && !f.gate.Allow(ctx, step.Name) {
			fmt.Fprintf(&transcript, "\nStopped before step %d (%s): autonomy gate declined.\n", i+1, step.Name)
			break
		}

		output, err := inv.Kernel.Generate(ctx, f.stepPrompt(inv, rm, step, transcript.String()))
		if err != nil {
			return nil, fmt.Errorf("campaign step %d (%s): %w", i+1, step.Name, err)
		}
		fmt.Fprintf(&transcript, "\n== Step %d: %s ==\n%s\n", i+1, step.Name, output)
		completed++
	}

	return &models.FlowResult{
		Flow:     f.Name(),
		Output:   transcript.String(),
		Success:  true,
		Metadata: models.FlowMetadata{CampaignSteps: completed},
	}, nil
}

func (f *CampaignFlow) stepPrompt(inv *Invocation, rm *Roadmap, step RoadmapStep, priorWork string) string {
	var b strings.Builder
	b.WriteString(inv.Prompt())
	fmt.Fprintf(&b, "\nYou are executing a multi-step campaign toward: %s\n", rm.Goal)
	if priorWork != "" {
		fmt.Fprintf(&b, "\nWork completed so far:\n%s\n", priorWork)
	}
	fmt.Fprintf(&b, "\nCurrent step (%s): %s", step.Name, step.Prompt)
	return b.String()
}
