package models

import "time"

// Lesson is a durable meta-learning record distilled from a completed task.
// Lessons are append-only; pruning and deduplication are external
// maintenance concerns.
type Lesson struct {
	// ID is the unique identifier for this lesson.
	ID string `json:"id"`
	// Title is a short description of what was learned.
	Title string `json:"title"`
	// Summary explains the lesson in enough detail to reuse it.
	Summary string `json:"summary"`
	// TaskID is the task this lesson was distilled from.
	TaskID string `json:"task_id"`
	// Tags classify the lesson for retrieval.
	Tags []string `json:"tags,omitempty"`
	// CreatedAt is when the lesson was recorded.
	CreatedAt time.Time `json:"created_at"`
}
