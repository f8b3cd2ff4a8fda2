package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mpieniak01/Venom-sub010/internal/config"
	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Manager builds, persists, and trims session context. Unrelated sessions
// may be mutated concurrently, but all mutation within one session id is
// serialized, so context updates land in dispatch order.
type Manager struct {
	records    *state.Records
	summarizer Summarizer
	translator Translator
	memory     MemoryRetriever
	cfg        config.SessionConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a session context manager. translator and memory are
// optional; a nil memory retriever just yields contexts without snippets.
func NewManager(records *state.Records, summarizer Summarizer, translator Translator, memory MemoryRetriever, cfg config.SessionConfig) *Manager {
	return &Manager{
		records:    records,
		summarizer: summarizer,
		translator: translator,
		memory:     memory,
		cfg:        cfg,
		locks:      make(map[string]*sync.Mutex),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// sessionLock returns the mutex serializing mutation for one session id.
func (m *Manager) sessionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// BuildContext loads or creates the session, appends the task's input as a
// turn, trims history if needed, persists the session, and assembles the
// bounded context block for the flow.
func (m *Manager) BuildContext(ctx context.Context, task *models.Task) (*ContextBlock, error) {
	lock := m.sessionLock(task.SessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.loadOrCreate(task.SessionID)
	if err != nil {
		return nil, err
	}

	sess.Append(models.RoleUser, task.Input.Text, m.now())
	if sess.PreferredLanguage == "" {
		sess.PreferredLanguage = DetectLanguage(task.Input.Text)
	}

	if _, err := m.summarizeLocked(ctx, sess); err != nil {
		// Summarization failure must not block the task; the oversized
		// history is carried until the next attempt.
		log.Printf("[session] summarize %s: %v", sess.ID, err)
	}

	block := m.assemble(ctx, sess, task.Input.Text)

	if err := m.records.PutSession(sess); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", sess.ID, err)
	}
	return block, nil
}

// RecordOutcome appends the assistant's output to the session history.
// Called by the orchestrator after a successful flow execution.
func (m *Manager) RecordOutcome(sessionID, output string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.loadOrCreate(sessionID)
	if err != nil {
		return err
	}
	sess.Append(models.RoleAssistant, output, m.now())
	return m.records.PutSession(sess)
}

// Get returns the persisted session, or state.ErrNotFound.
func (m *Manager) Get(sessionID string) (*models.Session, error) {
	return m.records.GetSession(sessionID)
}

// SummarizeIfNeeded trims the session history when it exceeds the
// configured thresholds, replacing the oldest turns with a single summary
// turn. Idempotent: a session below threshold is left untouched.
// Returns true when a trim happened.
func (m *Manager) SummarizeIfNeeded(ctx context.Context, sessionID string) (bool, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.records.GetSession(sessionID)
	if err != nil {
		return false, err
	}
	trimmed, err := m.summarizeLocked(ctx, sess)
	if err != nil {
		return false, err
	}
	if trimmed {
		if err := m.records.PutSession(sess); err != nil {
			return false, err
		}
	}
	return trimmed, nil
}

// summarizeLocked performs the trim on an in-memory session. Callers hold
// the session lock.
func (m *Manager) summarizeLocked(ctx context.Context, sess *models.Session) (bool, error) {
	over := len(sess.Turns) > m.cfg.HistoryThreshold ||
		(m.cfg.CharThreshold > 0 && sess.CharCount() > m.cfg.CharThreshold)
	if !over {
		return false, nil
	}

	keep := m.cfg.TrimTarget - 1 // one slot goes to the summary turn
	if keep < 0 {
		keep = 0
	}
	if keep >= len(sess.Turns) {
		return false, nil
	}

	boundary := len(sess.Turns) - keep
	trimmed := sess.Turns[:boundary]

	summary, err := m.summarizer.Summarize(ctx, sess.Summary, trimmed)
	if err != nil {
		return false, fmt.Errorf("summarizer: %w", err)
	}

	sess.Summary = summary
	rest := make([]models.Turn, keep)
	copy(rest, sess.Turns[boundary:])

	summaryTurn := models.Turn{Role: models.RoleSummary, Content: summary, Timestamp: m.now()}
	if len(trimmed) > 0 {
		// Keep history ordering monotonic: the summary turn inherits the
		// newest trimmed timestamp.
		summaryTurn.Timestamp = trimmed[len(trimmed)-1].Timestamp
	}
	sess.Turns = append([]models.Turn{summaryTurn}, rest...)
	sess.UpdatedAt = m.now()
	return true, nil
}

// TranslateIfNeeded routes content through the translator when the session
// prefers a language different from the content's detected one. Translation
// failure degrades gracefully to the original content.
func (m *Manager) TranslateIfNeeded(ctx context.Context, content string, sess *models.Session) string {
	if sess == nil || sess.PreferredLanguage == "" || m.translator == nil {
		return content
	}
	if DetectLanguage(content) == sess.PreferredLanguage {
		return content
	}

	translated, err := m.translator.Translate(ctx, content, sess.PreferredLanguage)
	if err != nil {
		log.Printf("[session] translate to %s failed, returning original: %v", sess.PreferredLanguage, err)
		return content
	}
	return translated
}

// loadOrCreate returns the stored session or a fresh one for a new id.
func (m *Manager) loadOrCreate(id string) (*models.Session, error) {
	sess, err := m.records.GetSession(id)
	if err == nil {
		return sess, nil
	}
	if err != state.ErrNotFound {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	now := m.now()
	return &models.Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

// assemble builds the bounded context block. Memory retrieval failure is
// logged and skipped; the retriever is an external collaborator.
func (m *Manager) assemble(ctx context.Context, sess *models.Session, query string) *ContextBlock {
	turns := sess.Turns
	if m.cfg.ContextTurns > 0 && len(turns) > m.cfg.ContextTurns {
		turns = turns[len(turns)-m.cfg.ContextTurns:]
	}
	recent := make([]models.Turn, len(turns))
	copy(recent, turns)

	block := &ContextBlock{
		SessionID:         sess.ID,
		Summary:           sess.Summary,
		Turns:             recent,
		PreferredLanguage: sess.PreferredLanguage,
	}

	if m.memory != nil && m.cfg.MemorySnippets > 0 {
		snippets, err := m.memory.Retrieve(ctx, sess.ID, query, m.cfg.MemorySnippets)
		if err != nil {
			log.Printf("[session] memory retrieval for %s failed: %v", sess.ID, err)
		} else {
			refs := sess.MemoryRefs[:0]
			for _, s := range snippets {
				if m.cfg.SnippetMaxChars > 0 && len(s.Content) > m.cfg.SnippetMaxChars {
					s.Content = s.Content[:m.cfg.SnippetMaxChars]
				}
				block.Memory = append(block.Memory, s)
				refs = append(refs, s.Ref)
			}
			sess.MemoryRefs = refs
		}
	}

	return block
}
