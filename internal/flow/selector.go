package flow

import (
	"regexp"
	"strings"

	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Intent mode hints recognized by the selector.
const (
	modeCouncil  = "council"
	modeReview   = "review"
	modeHeal     = "heal"
	modeForge    = "forge"
	modeIssue    = "issue"
	modeCampaign = "campaign"
)

// councilKeywords signal a request for multi-perspective deliberation.
var councilKeywords = []string{
	"compare",
	"perspectives",
	"debate",
	"tradeoffs",
	"trade-offs",
	"pros and cons",
	"weigh the options",
}

// codeKeywords signal a code-authoring task.
var codeKeywords = []string{
	"implement",
	"write a function",
	"write code",
	"refactor",
	"unit test",
	"bug in the code",
	"code review",
	"add a method",
}

// healingKeywords signal repairing earlier failed work. They only select
// the healing cycle when a matching prior failure exists.
var healingKeywords = []string{
	"fix",
	"repair",
	"retry",
	"heal",
	"broken",
	"failing",
}

// forgeKeywords signal creation of a new callable tool or skill.
var forgeKeywords = []string{
	"create a tool",
	"new tool",
	"build a skill",
	"register a tool",
	"forge",
}

// issueRefPattern matches external tracker references like "#123" or
// "PROJ-42".
var issueRefPattern = regexp.MustCompile(`(#\d+|\b[A-Z][A-Z0-9]+-\d+\b)`)

// TaskHistory looks up prior failed tasks for the healing predicate.
type TaskHistory interface {
	// FindFailedMatching returns the most recent failed task whose input
	// overlaps the given text, or nil when none matches.
	FindFailedMatching(sessionID, text string) *models.Task
}

// Selection is the selector's verdict: which flow runs, plus the facts the
// matching predicate resolved along the way.
type Selection struct {
	// Flow is the selected flow name.
	Flow models.FlowName
	// Prior is the matched failed task for a healing selection.
	Prior *models.Task
	// IssueRef is the matched tracker reference for an issue selection.
	IssueRef string
}

// Selector evaluates task intent and context against the named predicates
// in fixed priority order. Selection is pure: it mutates nothing, so it is
// unit-testable in isolation from execution.
type Selector struct {
	history TaskHistory
}

// NewSelector creates a selector. history may be nil, which disables the
// healing predicate's prior-failure lookup.
func NewSelector(history TaskHistory) *Selector {
	return &Selector{history: history}
}

// Select returns the flow for the task. The first matching predicate wins;
// with no match the default direct-response flow is chosen.
func (s *Selector) Select(task *models.Task, block *session.ContextBlock) Selection {
	text := strings.ToLower(task.Input.Text)
	mode := task.Input.Mode()

	// 1. Council: explicit intent or deliberation keywords.
	if mode == modeCouncil || containsAny(text, councilKeywords) {
		return Selection{Flow: models.FlowCouncil}
	}

	// 2. Code generation with review.
	if mode == modeReview || containsAny(text, codeKeywords) {
		return Selection{Flow: models.FlowReview}
	}

	// 3. Healing: repair intent plus a matching prior failure.
	if mode == modeHeal || containsAny(text, healingKeywords) {
		if prior := s.findPrior(task); prior != nil {
			return Selection{Flow: models.FlowHealing, Prior: prior}
		}
		// No matching failure to heal: fall through to later predicates.
	}

	// 4. Forge: tool/skill creation.
	if mode == modeForge || containsAny(text, forgeKeywords) {
		return Selection{Flow: models.FlowForge}
	}

	// 5. Issue handling: a tracker reference in the input.
	if ref := issueRefPattern.FindString(task.Input.Text); mode == modeIssue || ref != "" {
		return Selection{Flow: models.FlowIssue, IssueRef: ref}
	}

	// 6. Campaign: operator-level command only, never inferred from text.
	if mode == modeCampaign {
		return Selection{Flow: models.FlowCampaign}
	}

	// 7. Default.
	return Selection{Flow: models.FlowDirect}
}

// findPrior resolves the healing predicate's prior-failure lookup.
func (s *Selector) findPrior(task *models.Task) *models.Task {
	if s.history == nil {
		return nil
	}
	return s.history.FindFailedMatching(task.SessionID, task.Input.Text)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
