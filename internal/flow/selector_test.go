package flow

import (
	"testing"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

type stubHistory struct {
	prior *models.Task
}

func (h *stubHistory) FindFailedMatching(sessionID, text string) *models.Task {
	return h.prior
}

func TestSelectorPredicateOrder(t *testing.T) {
	failed := &models.Task{
		ID:       "t-prior",
		Status:   models.TaskStatusFailed,
		FlowName: models.FlowReview,
		Error:    &models.ErrorEnvelope{Kind: models.ErrKindInternal, Message: "boom"},
	}

	tests := []struct {
		name   string
		text   string
		intent map[string]string
		prior  *models.Task
		want   models.FlowName
	}{
		{name: "default direct", text: "what time zone is Warsaw in", want: models.FlowDirect},
		{name: "council by mode", text: "pick a database", intent: map[string]string{"mode": "council"}, want: models.FlowCouncil},
		{name: "council by keyword", text: "compare postgres and sqlite tradeoffs", want: models.FlowCouncil},
		{name: "review by keyword", text: "implement a retry helper", want: models.FlowReview},
		{name: "review by mode", text: "hello", intent: map[string]string{"mode": "review"}, want: models.FlowReview},
		{name: "council outranks review", text: "compare ways to implement caching", want: models.FlowCouncil},
		{name: "healing with prior failure", text: "fix the last answer", prior: failed, want: models.FlowHealing},
		{name: "healing keyword without prior falls through", text: "my bike is broken, what should I check", want: models.FlowDirect},
		{name: "forge by keyword", text: "create a tool that formats dates", want: models.FlowForge},
		{name: "issue by reference", text: "look into #128 please", want: models.FlowIssue},
		{name: "issue by tracker key", text: "what happened with VEN-42", want: models.FlowIssue},
		{name: "campaign by mode only", text: "run the campaign", intent: map[string]string{"mode": "campaign"}, want: models.FlowCampaign},
		{name: "campaign never inferred from text", text: "start a campaign for this", want: models.FlowDirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector(&stubHistory{prior: tt.prior})
			task := &models.Task{
				ID:        "t-1",
				SessionID: "s-1",
				Input:     models.TaskInput{Text: tt.text, Intent: tt.intent},
			}
			got := sel.Select(task, nil)
			if got.Flow != tt.want {
				t.Fatalf("Select(%q) = %s, want %s", tt.text, got.Flow, tt.want)
			}
			if tt.want == models.FlowHealing && got.Prior == nil {
				t.Fatal("healing selection did not carry the prior task")
			}
		})
	}
}

func TestSelectorIssueRefCaptured(t *testing.T) {
	sel := NewSelector(nil)
	task := &models.Task{Input: models.TaskInput{Text: "triage PROJ-7 today"}}
	got := sel.Select(task, nil)
	if got.Flow != models.FlowIssue {
		t.Fatalf("flow = %s, want issue", got.Flow)
	}
	if got.IssueRef != "PROJ-7" {
		t.Fatalf("issue ref = %q, want PROJ-7", got.IssueRef)
	}
}

func TestSelectorNilHistoryDisablesHealing(t *testing.T) {
	sel := NewSelector(nil)
	task := &models.Task{Input: models.TaskInput{Text: "retry that"}, SessionID: "s-1"}
	if got := sel.Select(task, nil); got.Flow != models.FlowDirect {
		t.Fatalf("flow = %s, want direct", got.Flow)
	}
}
