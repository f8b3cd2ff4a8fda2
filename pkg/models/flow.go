package models

// FlowName identifies a named execution strategy.
type FlowName string

const (
	// FlowDirect is the default single generate-and-return flow.
	FlowDirect FlowName = "direct"
	// FlowCouncil runs parallel candidate generations and a synthesis step.
	FlowCouncil FlowName = "council"
	// FlowReview runs a generate-review-revise loop for code tasks.
	FlowReview FlowName = "review"
	// FlowHealing re-runs a previously failed task with its error injected.
	FlowHealing FlowName = "healing"
	// FlowForge creates and registers a new callable tool.
	FlowForge FlowName = "forge"
	// FlowIssue resolves a referenced issue-tracker item.
	FlowIssue FlowName = "issue"
	// FlowCampaign runs a bounded autonomous sub-task sequence.
	FlowCampaign FlowName = "campaign"
)

// Valid returns true if the name is a known flow.
func (n FlowName) Valid() bool {
	switch n {
	case FlowDirect, FlowCouncil, FlowReview, FlowHealing, FlowForge, FlowIssue, FlowCampaign:
		return true
	default:
		return false
	}
}

// FlowMetadata carries structured facts about a flow execution, consumed by
// the meta-learning recorder and surfaced to observers.
type FlowMetadata struct {
	// ReviewIterations is the number of generate-review-revise rounds.
	ReviewIterations int `json:"review_iterations,omitempty"`
	// CouncilVotes maps candidate label to votes received during synthesis.
	CouncilVotes map[string]int `json:"council_votes,omitempty"`
	// HealingAttempts is the number of retry attempts a healing cycle made.
	HealingAttempts int `json:"healing_attempts,omitempty"`
	// CampaignSteps is the number of campaign sub-tasks executed.
	CampaignSteps int `json:"campaign_steps,omitempty"`
	// ToolName is the tool registered by a forge flow.
	ToolName string `json:"tool_name,omitempty"`
	// IssueRef is the tracker item an issue flow handled.
	IssueRef string `json:"issue_ref,omitempty"`
	// LessonWorthy is set by a flow that judges its own outcome worth
	// recording regardless of the recorder's default criteria.
	LessonWorthy bool `json:"lesson_worthy,omitempty"`
}

// FlowResult is the uniform outcome of one flow execution.
type FlowResult struct {
	// Flow is the flow that produced this result.
	Flow FlowName `json:"flow"`
	// Output is the produced text.
	Output string `json:"output"`
	// Success indicates the flow considers the task done.
	Success bool `json:"success"`
	// Cancelled indicates the flow exited early on a cancellation signal.
	// A cancelled result is neither success nor failure.
	Cancelled bool `json:"cancelled,omitempty"`
	// Metadata holds structured execution facts.
	Metadata FlowMetadata `json:"metadata"`
}
