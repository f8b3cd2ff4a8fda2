package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpieniak01/Venom-sub010/internal/kernel"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// KernelSummarizer implements Summarizer over the active kernel.
type KernelSummarizer struct {
	kernels *kernel.Manager
}

// NewKernelSummarizer creates a summarizer backed by the kernel manager.
func NewKernelSummarizer(kernels *kernel.Manager) *KernelSummarizer {
	return &KernelSummarizer{kernels: kernels}
}

// Summarize folds the trimmed turns into the previous rolling summary.
func (s *KernelSummarizer) Summarize(ctx context.Context, previous string, turns []models.Turn) (string, error) {
	handle, err := s.kernels.ActiveHandle()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Condense the following conversation into a short summary that preserves decisions, open questions, and user preferences.\n")
	if previous != "" {
		b.WriteString("\nPrevious summary:\n")
		b.WriteString(previous)
		b.WriteString("\n")
	}
	b.WriteString("\nConversation:\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}

	return handle.Generate(ctx, b.String())
}

// KernelTranslator implements Translator over the active kernel.
type KernelTranslator struct {
	kernels *kernel.Manager
}

// NewKernelTranslator creates a translator backed by the kernel manager.
func NewKernelTranslator(kernels *kernel.Manager) *KernelTranslator {
	return &KernelTranslator{kernels: kernels}
}

// Translate renders content in the target language.
func (t *KernelTranslator) Translate(ctx context.Context, content, targetLang string) (string, error) {
	handle, err := t.kernels.ActiveHandle()
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Translate the following text to %s. Return only the translation.\n\n%s", targetLang, content)
	return handle.Generate(ctx, prompt)
}
