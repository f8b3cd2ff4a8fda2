package state

import (
	"encoding/json"
	"fmt"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Key prefixes under which typed records live in the kv store.
const (
	taskKeyPrefix    = "task:"
	sessionKeyPrefix = "session:"
	lessonKeyPrefix  = "lesson:"
)

// Records wraps a Store with typed task, session and lesson accessors.
// All records are stored as JSON under prefixed keys, so any Store
// implementation works unchanged.
type Records struct {
	store Store
}

// NewRecords creates typed accessors over the given store.
func NewRecords(store Store) *Records {
	return &Records{store: store}
}

// PutTask persists a task record.
func (r *Records) PutTask(t *models.Task) error {
	return r.putJSON(taskKeyPrefix+t.ID, t)
}

// GetTask loads a task by id.
func (r *Records) GetTask(id string) (*models.Task, error) {
	var t models.Task
	if err := r.getJSON(taskKeyPrefix+id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks loads every persisted task.
func (r *Records) ListTasks() ([]*models.Task, error) {
	keys, err := r.store.List(taskKeyPrefix)
	if err != nil {
		return nil, err
	}
	tasks := make([]*models.Task, 0, len(keys))
	for _, k := range keys {
		var t models.Task
		if err := r.getJSON(k, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

// PutSession persists a session record.
func (r *Records) PutSession(s *models.Session) error {
	return r.putJSON(sessionKeyPrefix+s.ID, s)
}

// GetSession loads a session by id.
func (r *Records) GetSession(id string) (*models.Session, error) {
	var s models.Session
	if err := r.getJSON(sessionKeyPrefix+id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AppendLesson appends a lesson to the lesson log. Lessons are keyed by
// creation time then id so List returns them in chronological order.
func (r *Records) AppendLesson(l *models.Lesson) error {
	key := fmt.Sprintf("%s%s-%s", lessonKeyPrefix, l.CreatedAt.UTC().Format("20060102T150405.000000000"), l.ID)
	return r.putJSON(key, l)
}

// ListLessons loads the full lesson log in chronological order.
func (r *Records) ListLessons() ([]*models.Lesson, error) {
	keys, err := r.store.List(lessonKeyPrefix)
	if err != nil {
		return nil, err
	}
	lessons := make([]*models.Lesson, 0, len(keys))
	for _, k := range keys {
		var l models.Lesson
		if err := r.getJSON(k, &l); err != nil {
			return nil, err
		}
		lessons = append(lessons, &l)
	}
	return lessons, nil
}

func (r *Records) putJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return r.store.Put(key, data)
}

func (r *Records) getJSON(key string, v interface{}) error {
	data, err := r.store.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return nil
}
