package models

import "time"

// Turn is a single entry in a session's conversation history.
type Turn struct {
	// Role is who produced the content: "user", "assistant" or "summary".
	Role string `json:"role"`
	// Content is the turn text.
	Content string `json:"content"`
	// Timestamp is when the turn was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Turn roles. RoleSummary marks the rolling-summary turn that replaces
// trimmed history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSummary   = "summary"
)

// Session represents one continuous conversation context. History ordering
// is append-only and monotonic in time. Sessions are never deleted by the
// orchestration core; retention is an external concern.
type Session struct {
	// ID is the session identifier.
	ID string `json:"id"`
	// Turns is the ordered conversation history.
	Turns []Turn `json:"turns"`
	// Summary is the rolling summary produced when history exceeds the
	// configured size. Empty until the first trim.
	Summary string `json:"summary,omitempty"`
	// PreferredLanguage is the session's preferred output language code
	// (e.g. "pl"). Empty means no preference.
	PreferredLanguage string `json:"preferred_language,omitempty"`
	// MemoryRefs are identifiers of long-term memory entries retrieved for
	// this session. The entries themselves live in an external vector store.
	MemoryRefs []string `json:"memory_refs,omitempty"`
	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the session was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds a turn to the session history and bumps UpdatedAt.
func (s *Session) Append(role, content string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Timestamp: at})
	s.UpdatedAt = at
}

// CharCount returns the total characters across all turns.
func (s *Session) CharCount() int {
	total := 0
	for _, t := range s.Turns {
		total += len(t.Content)
	}
	return total
}
