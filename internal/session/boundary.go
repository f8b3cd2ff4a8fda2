// Package session builds, persists, and trims the conversational context
// for a task. Mutation is serialized per session id.
package session

import (
	"context"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Summarizer condenses trimmed history into a rolling summary. The
// concrete implementation is an external call (kernel generation).
type Summarizer interface {
	// Summarize folds the given turns into the previous summary.
	Summarize(ctx context.Context, previous string, turns []models.Turn) (string, error)
}

// Translator renders content in a target language. External call.
type Translator interface {
	// Translate returns content rendered in the target language code.
	Translate(ctx context.Context, content, targetLang string) (string, error)
}

// Snippet is one long-term memory entry retrieved for a session. The entry
// itself is owned by an external vector store; Ref is the weak reference
// kept on the session.
type Snippet struct {
	// Ref identifies the entry in the external store.
	Ref string
	// Content is the retrieved text.
	Content string
}

// MemoryRetriever fetches relevant long-term memory for a query. External
// vector store boundary; the index algorithm is not this core's concern.
type MemoryRetriever interface {
	// Retrieve returns up to limit snippets relevant to the query.
	Retrieve(ctx context.Context, sessionID, query string, limit int) ([]Snippet, error)
}
