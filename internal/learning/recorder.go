// Package learning distills durable lessons from completed tasks. The
// recorder is best-effort: a failed lesson write is logged and swallowed,
// it never fails the task that produced it.
package learning

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Recorder decides which completed tasks are worth remembering and
// appends a lesson for each one.
type Recorder struct {
	records *state.Records
	broker  *middleware.Broker
	now     func() time.Time
}

// NewRecorder creates a recorder over the given record store. broker may
// be nil.
func NewRecorder(records *state.Records, broker *middleware.Broker) *Recorder {
	return &Recorder{records: records, broker: broker, now: time.Now}
}

// MaybeRecord appends a lesson when the completed task qualifies. It
// returns the recorded lesson, or nil when the task did not qualify.
func (r *Recorder) MaybeRecord(task *models.Task, result *models.FlowResult) *models.Lesson {
	if result == nil || result.Cancelled {
		return nil
	}
	reason := qualifies(result)
	if reason == "" {
		return nil
	}

	lesson := &models.Lesson{
		ID:        uuid.New().String(),
		Title:     title(task, result, reason),
		Summary:   summary(task, result, reason),
		TaskID:    task.ID,
		Tags:      tags(result, reason),
		CreatedAt: r.now().UTC(),
	}

	if err := r.records.AppendLesson(lesson); err != nil {
		log.Printf("[learning] lesson for task %s not recorded: %v", task.ID, err)
		return nil
	}

	log.Printf("[learning] recorded lesson %s for task %s (%s)", lesson.ID, task.ID, reason)
	if r.broker != nil {
		r.broker.Emit(middleware.Event{
			Type:   middleware.EventLessonRecorded,
			TaskID: task.ID,
			Payload: map[string]interface{}{
				"lesson_id": lesson.ID,
				"reason":    reason,
			},
		})
	}
	return lesson
}

// qualifies returns a non-empty reason when the outcome is worth a
// lesson: a review loop that needed multiple rounds, a success that took
// healing, or a flow that flagged its own outcome.
func qualifies(result *models.FlowResult) string {
	switch {
	case result.Metadata.ReviewIterations >= 2:
		return "review-iterations"
	case result.Success && result.Metadata.HealingAttempts >= 1:
		return "healed-failure"
	case result.Metadata.LessonWorthy:
		return "flow-flagged"
	default:
		return ""
	}
}

func title(task *models.Task, result *models.FlowResult, reason string) string {
	input := task.Input.Text
	if len(input) > 60 {
		input = input[:60] + "..."
	}
	return fmt.Sprintf("%s flow, %s: %s", result.Flow, reason, input)
}

func summary(task *models.Task, result *models.FlowResult, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s ran the %s flow.", task.ID, result.Flow)
	if n := result.Metadata.ReviewIterations; n >= 2 {
		fmt.Fprintf(&b, " The draft needed %d review rounds before acceptance.", n)
	}
	if n := result.Metadata.HealingAttempts; result.Success && n >= 1 {
		fmt.Fprintf(&b, " Succeeded only after %d healing attempt(s); the original request pattern is prone to first-try failure.", n)
	}
	if result.Metadata.LessonWorthy && reason == "flow-flagged" {
		b.WriteString(" The flow flagged its own outcome as worth remembering.")
	}
	fmt.Fprintf(&b, " Request: %s", task.Input.Text)
	return b.String()
}

func tags(result *models.FlowResult, reason string) []string {
	t := []string{string(result.Flow), reason}
	if !result.Success {
		t = append(t, "unresolved")
	}
	return t
}
