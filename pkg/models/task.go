package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting for a worker.
	TaskStatusQueued TaskStatus = "queued"
	// TaskStatusRunning indicates a flow is actively executing the task.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusSucceeded indicates the task completed successfully.
	TaskStatusSucceeded TaskStatus = "succeeded"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled indicates the task was cancelled before or during execution.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusQueued, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Priority is the queue class of a task. Higher classes are drained first;
// within a class dispatch is FIFO by submission time.
type Priority int

const (
	// PriorityLow is for background work.
	PriorityLow Priority = 0
	// PriorityNormal is the default queue class.
	PriorityNormal Priority = 1
	// PriorityHigh is for interactive requests.
	PriorityHigh Priority = 2
	// PriorityCritical is for operator-level commands.
	PriorityCritical Priority = 3
)

// Valid returns true if the priority is a known queue class.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// String returns the queue class name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority maps a queue class name to a Priority.
// Unknown names map to PriorityNormal.
func ParsePriority(name string) Priority {
	switch name {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

// TaskInput is the payload submitted with a task: a free-form request plus
// optional structured intent hints.
type TaskInput struct {
	// Text is the free-form request.
	Text string `json:"text"`
	// Intent carries optional structured hints, e.g. {"mode": "council"}.
	Intent map[string]string `json:"intent,omitempty"`
}

// Mode returns the intent "mode" hint, or "" when absent.
func (in TaskInput) Mode() string {
	if in.Intent == nil {
		return ""
	}
	return in.Intent["mode"]
}

// Task represents a unit of work submitted to the orchestrator.
// The orchestrator owns the record while queued; the active flow owns
// mutation while running; terminal status is written back by the
// orchestrator.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// SessionID identifies the originating session.
	SessionID string `json:"session_id"`
	// Input is the submitted payload.
	Input TaskInput `json:"input"`
	// Priority is the queue class.
	Priority Priority `json:"priority"`
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// FlowName is the flow that processed the task, once selected.
	FlowName FlowName `json:"flow_name,omitempty"`
	// Output is the produced result for a succeeded task.
	Output string `json:"output,omitempty"`
	// Error holds the normalized failure record for a failed task.
	Error *ErrorEnvelope `json:"error,omitempty"`
	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when a worker picked the task up, if it ran.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
