package session

import (
	"strings"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// ContextBlock is the bounded context assembled for one task: recent turns,
// the rolling summary, and relevant long-term memory snippets. Assembly is
// deterministic given the same session state and configuration.
type ContextBlock struct {
	// SessionID is the owning session.
	SessionID string
	// Summary is the session's rolling summary, if any.
	Summary string
	// Turns are the most recent turns, newest last.
	Turns []models.Turn
	// Memory holds retrieved long-term memory snippets, size-capped.
	Memory []Snippet
	// PreferredLanguage is the session's output language preference.
	PreferredLanguage string
}

// Prompt renders the context block as the prompt prefix handed to a flow.
func (c *ContextBlock) Prompt() string {
	var b strings.Builder

	if c.Summary != "" {
		b.WriteString("Conversation summary:\n")
		b.WriteString(c.Summary)
		b.WriteString("\n\n")
	}

	if len(c.Memory) > 0 {
		b.WriteString("Relevant memory:\n")
		for _, m := range c.Memory {
			b.WriteString("- ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, t := range c.Turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}

	return b.String()
}

// LastUserInput returns the content of the most recent user turn.
func (c *ContextBlock) LastUserInput() string {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == models.RoleUser {
			return c.Turns[i].Content
		}
	}
	return ""
}
