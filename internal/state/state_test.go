package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// storeUnderTest runs the same contract checks against both backends.
func storeUnderTest(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("put then get round trips", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if err := s.Put("a", []byte("one")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Put("a", []byte("two")); err != nil {
			t.Fatalf("Put overwrite: %v", err)
		}
		got, err := s.Get("a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "two" {
			t.Errorf("Get = %q, want %q", got, "two")
		}
	})

	t.Run("list filters by prefix and sorts", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		for _, k := range []string{"task:b", "task:a", "session:x", "task:c"} {
			if err := s.Put(k, []byte("v")); err != nil {
				t.Fatalf("Put(%q): %v", k, err)
			}
		}
		keys, err := s.List("task:")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"task:a", "task:b", "task:c"}
		if len(keys) != len(want) {
			t.Fatalf("List returned %v, want %v", keys, want)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("List[%d] = %q, want %q", i, keys[i], want[i])
			}
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) Store {
		db, err := Open(filepath.Join(t.TempDir(), "state.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return db
	})
}

func TestRecordsTaskRoundTrip(t *testing.T) {
	r := NewRecords(NewMemoryStore())

	task := &models.Task{
		ID:        "t1",
		SessionID: "s1",
		Input:     models.TaskInput{Text: "hello"},
		Priority:  models.PriorityHigh,
		Status:    models.TaskStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.PutTask(task); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	got, err := r.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Input.Text != "hello" || got.Priority != models.PriorityHigh {
		t.Errorf("GetTask = %+v, want input/priority preserved", got)
	}

	if _, err := r.GetTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRecordsLessonLogOrder(t *testing.T) {
	r := NewRecords(NewMemoryStore())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		l := &models.Lesson{
			ID:        title,
			Title:     title,
			TaskID:    "t1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := r.AppendLesson(l); err != nil {
			t.Fatalf("AppendLesson: %v", err)
		}
	}

	lessons, err := r.ListLessons()
	if err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	if len(lessons) != 3 {
		t.Fatalf("ListLessons returned %d lessons, want 3", len(lessons))
	}
	for i, want := range []string{"first", "second", "third"} {
		if lessons[i].Title != want {
			t.Errorf("lesson[%d] = %q, want %q", i, lessons[i].Title, want)
		}
	}
}
