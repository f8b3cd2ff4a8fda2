package learning

import (
	"context"
	"testing"
	"time"

	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

func newTestRecorder(t *testing.T) (*Recorder, *state.Records) {
	t.Helper()
	records := state.NewRecords(state.NewMemoryStore())
	rec := NewRecorder(records, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	rec.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return rec, records
}

func taskFor(text string) *models.Task {
	return &models.Task{
		ID:        "t-1",
		SessionID: "s-1",
		Input:     models.TaskInput{Text: text},
		Status:    models.TaskStatusSucceeded,
	}
}

func TestMaybeRecordCriteria(t *testing.T) {
	tests := []struct {
		name   string
		result *models.FlowResult
		want   bool
	}{
		{
			name:   "plain success does not qualify",
			result: &models.FlowResult{Flow: models.FlowDirect, Success: true},
			want:   false,
		},
		{
			name:   "single review round does not qualify",
			result: &models.FlowResult{Flow: models.FlowReview, Success: true, Metadata: models.FlowMetadata{ReviewIterations: 1}},
			want:   false,
		},
		{
			name:   "multi-round review qualifies",
			result: &models.FlowResult{Flow: models.FlowReview, Success: true, Metadata: models.FlowMetadata{ReviewIterations: 3}},
			want:   true,
		},
		{
			name:   "healed success qualifies",
			result: &models.FlowResult{Flow: models.FlowHealing, Success: true, Metadata: models.FlowMetadata{HealingAttempts: 2}},
			want:   true,
		},
		{
			name:   "failed healing does not qualify on attempts alone",
			result: &models.FlowResult{Flow: models.FlowHealing, Success: false, Metadata: models.FlowMetadata{HealingAttempts: 2}},
			want:   false,
		},
		{
			name:   "flow-flagged outcome qualifies",
			result: &models.FlowResult{Flow: models.FlowCouncil, Success: true, Metadata: models.FlowMetadata{LessonWorthy: true}},
			want:   true,
		},
		{
			name:   "cancelled result never qualifies",
			result: &models.FlowResult{Flow: models.FlowReview, Cancelled: true, Metadata: models.FlowMetadata{ReviewIterations: 3}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, records := newTestRecorder(t)
			lesson := rec.MaybeRecord(taskFor("implement a parser"), tt.result)
			if (lesson != nil) != tt.want {
				t.Fatalf("MaybeRecord = %v, want recorded=%v", lesson, tt.want)
			}
			stored, err := records.ListLessons()
			if err != nil {
				t.Fatalf("ListLessons: %v", err)
			}
			wantLen := 0
			if tt.want {
				wantLen = 1
			}
			if len(stored) != wantLen {
				t.Fatalf("stored lessons = %d, want %d", len(stored), wantLen)
			}
		})
	}
}

func TestMaybeRecordLessonContent(t *testing.T) {
	rec, _ := newTestRecorder(t)
	result := &models.FlowResult{
		Flow:     models.FlowReview,
		Success:  true,
		Metadata: models.FlowMetadata{ReviewIterations: 3},
	}
	lesson := rec.MaybeRecord(taskFor("implement a streaming JSON parser"), result)
	if lesson == nil {
		t.Fatal("expected a lesson")
	}
	if lesson.TaskID != "t-1" {
		t.Fatalf("task id = %q", lesson.TaskID)
	}
	if lesson.ID == "" {
		t.Fatal("lesson id empty")
	}
	if len(lesson.Tags) == 0 || lesson.Tags[0] != "review" {
		t.Fatalf("tags = %v, want flow name first", lesson.Tags)
	}
}

func TestLessonRetrieverRanksByOverlap(t *testing.T) {
	records := state.NewRecords(state.NewMemoryStore())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lessons := []*models.Lesson{
		{ID: "l-1", Title: "parser lesson", Summary: "streaming parser needed three review rounds", CreatedAt: base},
		{ID: "l-2", Title: "deploy lesson", Summary: "rollout failed without healthcheck", CreatedAt: base.Add(time.Second)},
		{ID: "l-3", Title: "parser retry", Summary: "parser succeeded after healing", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, l := range lessons {
		if err := records.AppendLesson(l); err != nil {
			t.Fatalf("AppendLesson: %v", err)
		}
	}

	r := NewLessonRetriever(records)
	got, err := r.Retrieve(context.Background(), "s-1", "fix the streaming parser", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("snippets = %d, want 2", len(got))
	}
	// "streaming" and "parser" both hit l-1; l-3 matches "parser" only.
	if got[0].Ref != "lesson:l-1" {
		t.Fatalf("top snippet = %s, want lesson:l-1", got[0].Ref)
	}
	if got[1].Ref != "lesson:l-3" {
		t.Fatalf("second snippet = %s, want lesson:l-3", got[1].Ref)
	}
}

func TestLessonRetrieverNoMatches(t *testing.T) {
	records := state.NewRecords(state.NewMemoryStore())
	r := NewLessonRetriever(records)
	got, err := r.Retrieve(context.Background(), "s-1", "anything at all", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("snippets = %d, want 0", len(got))
	}
}
