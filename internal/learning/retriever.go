package learning

import (
	"context"
	"sort"
	"strings"

	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// LessonRetriever serves recorded lessons as long-term memory snippets
// for session context assembly. Relevance is keyword overlap between the
// query and the lesson text; newer lessons win ties.
type LessonRetriever struct {
	records *state.Records
}

// NewLessonRetriever creates a retriever over the lesson log.
func NewLessonRetriever(records *state.Records) *LessonRetriever {
	return &LessonRetriever{records: records}
}

var _ session.MemoryRetriever = (*LessonRetriever)(nil)

// Retrieve scores every lesson against the query and returns the top
// matches, newest first among equals.
func (r *LessonRetriever) Retrieve(ctx context.Context, sessionID, query string, limit int) ([]session.Snippet, error) {
	if limit <= 0 {
		return nil, nil
	}
	lessons, err := r.records.ListLessons()
	if err != nil {
		return nil, err
	}

	terms := queryTerms(query)
	type scored struct {
		lesson *models.Lesson
		score  int
		order  int
	}
	matches := make([]scored, 0, len(lessons))
	for i, l := range lessons {
		s := overlap(terms, l)
		if s == 0 {
			continue
		}
		matches = append(matches, scored{lesson: l, score: s, order: i})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		// The log is chronological, so a higher index is newer.
		return matches[i].order > matches[j].order
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	snippets := make([]session.Snippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, session.Snippet{
			Ref:     "lesson:" + m.lesson.ID,
			Content: m.lesson.Title + " " + m.lesson.Summary,
		})
	}
	return snippets, nil
}

// queryTerms lowercases and splits the query, dropping words too short to
// discriminate.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= 4 {
			terms = append(terms, f)
		}
	}
	return terms
}

func overlap(terms []string, l *models.Lesson) int {
	text := strings.ToLower(l.Title + " " + l.Summary + " " + strings.Join(l.Tags, " "))
	score := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			score++
		}
	}
	return score
}
