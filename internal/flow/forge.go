package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// ToolSpec is a generated tool definition: a name, a description of what
// the tool does, and a JSON schema for its input.
type ToolSpec struct {
	// Name is the unique tool identifier.
	Name string `json:"name"`
	// Description explains what the tool does and when to use it.
	Description string `json:"description"`
	// InputSchema is the JSON schema for the tool's input, if drafted.
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// Validate checks the spec for the minimum a usable tool needs.
func (s ToolSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("tool spec missing name: %w", middleware.ErrInvalidInput)
	}
	if strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("tool spec %q missing description: %w", s.Name, middleware.ErrInvalidInput)
	}
	return nil
}

// ToolRegistry holds forged tool specs by name. Registration replaces any
// existing spec with the same name.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]ToolSpec
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]ToolSpec)}
}

// Register stores a validated spec.
func (r *ToolRegistry) Register(spec ToolSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[spec.Name] = spec
	return nil
}

// Lookup returns the spec registered under name.
func (r *ToolRegistry) Lookup(name string) (ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.tools[name]
	return spec, ok
}

// List returns the registered tool names.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// ForgeFlow drafts a tool specification with the kernel, validates it,
// registers it, and confirms the registered tool is resolvable.
type ForgeFlow struct {
	registry *ToolRegistry
}

// NewForgeFlow creates a forge flow backed by the given registry.
func NewForgeFlow(registry *ToolRegistry) *ForgeFlow {
	return &ForgeFlow{registry: registry}
}

// Name returns the flow name.
func (f *ForgeFlow) Name() models.FlowName { return models.FlowForge }

// Run drafts, validates and registers a tool spec for the request.
func (f *ForgeFlow) Run(ctx context.Context, inv *Invocation) (*models.FlowResult, error) {
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	draft, err := inv.Kernel.Generate(ctx, f.draftPrompt(inv))
	if err != nil {
		return nil, fmt.Errorf("draft tool spec: %w", err)
	}

	spec, err := parseToolSpec(draft)
	if err != nil {
		return nil, err
	}
	if inv.Cancel.Cancelled() {
		return cancelledResult(f.Name()), nil
	}

	if err := f.registry.Register(spec); err != nil {
		return nil, fmt.Errorf("register tool %q: %w", spec.Name, err)
	}
	if _, ok := f.registry.Lookup(spec.Name); !ok {
		return nil, fmt.Errorf("tool %q not resolvable after registration", spec.Name)
	}

	return &models.FlowResult{
		Flow:     f.Name(),
		Output:   fmt.Sprintf("Forged tool %q: %s", spec.Name, spec.Description),
		Success:  true,
		Metadata: models.FlowMetadata{ToolName: spec.Name},
	}, nil
}

func (f *ForgeFlow) draftPrompt(inv *Invocation) string {
	var b strings.Builder
	b.WriteString(inv.Prompt())
	b.WriteString("\nDraft a tool definition for the capability described above. ")
	b.WriteString("Respond with a single JSON object and nothing else, with fields ")
	b.WriteString(`"name" (snake_case identifier), "description" (one sentence), and `)
	b.WriteString(`"input_schema" (a JSON schema object for the tool's input).`)
	return b.String()
}

// parseToolSpec extracts the spec object from the kernel's reply, which
// may wrap the JSON in prose or a code fence.
func parseToolSpec(reply string) (ToolSpec, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return ToolSpec{}, fmt.Errorf("tool draft contains no JSON object: %w", middleware.ErrInvalidInput)
	}
	var spec ToolSpec
	if err := json.Unmarshal([]byte(reply[start:end+1]), &spec); err != nil {
		return ToolSpec{}, fmt.Errorf("parse tool draft: %w", middleware.ErrInvalidInput)
	}
	if err := spec.Validate(); err != nil {
		return ToolSpec{}, err
	}
	return spec, nil
}
