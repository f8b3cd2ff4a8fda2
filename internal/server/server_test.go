package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mpieniak01/Venom-sub010/internal/config"
	"github.com/mpieniak01/Venom-sub010/internal/flow"
	"github.com/mpieniak01/Venom-sub010/internal/kernel"
	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/internal/orchestrator"
	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

type echoGen struct{}

func (echoGen) Generate(ctx context.Context, prompt string) (string, error) {
	return "echoed", nil
}

type noopSummarizer struct{}

func (noopSummarizer) Summarize(ctx context.Context, previous string, turns []models.Turn) (string, error) {
	return previous, nil
}

// newTestServer wires a full stack with one worker running.
func newTestServer(t *testing.T) (*Server, *middleware.Broker, context.CancelFunc) {
	t.Helper()
	records := state.NewRecords(state.NewMemoryStore())
	broker := middleware.NewBroker(64)

	source := kernel.ConfigSourceFunc(func() (kernel.Config, error) {
		return kernel.Config{Model: "test-model"}, nil
	})
	km := kernel.NewManager(source, func(kernel.Config) (kernel.Generator, error) {
		return echoGen{}, nil
	}, broker)

	sessions := session.NewManager(records, noopSummarizer{}, nil, nil, config.SessionConfig{
		HistoryThreshold: 50, TrimTarget: 8, ContextTurns: 10,
	})

	core := orchestrator.NewCore(records, sessions, km, nil, nil, broker,
		orchestrator.WithWorkers(1), orchestrator.WithQueueCapacity(8))
	coordinator := flow.NewCoordinator(flow.NewSelector(core), broker, time.Minute)
	coordinator.Register(flow.NewDirectFlow())
	core.SetCoordinator(coordinator)

	ctx, cancel := context.WithCancel(context.Background())
	go core.Start(ctx)

	return New(":0", core, records, km, broker), broker, cancel
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSubmitAndStatusRoundTrip(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()
	h := srv.Handler()

	w := postJSON(t, h, "/tasks", submitRequest{SessionID: "s-1", Text: "hello there", Priority: "high"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d, body %s", w.Code, w.Body)
	}
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.ID == "" || task.Priority != models.PriorityHigh {
		t.Fatalf("task = %+v", task)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status code = %d", w.Code)
		}
		var got models.Task
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Status.Terminal() {
			if got.Status != models.TaskStatusSucceeded || got.Output != "echoed" {
				t.Fatalf("task = %+v", got)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never finished: %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitValidationStatus(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()
	h := srv.Handler()

	w := postJSON(t, h, "/tasks", submitRequest{SessionID: "s-1", Text: ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp struct {
		Error *models.ErrorEnvelope `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != models.ErrKindValidation {
		t.Fatalf("error = %+v, want validation envelope", resp.Error)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/tasks/nope", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCancelConflictOnTerminalTask(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()
	h := srv.Handler()

	w := postJSON(t, h, "/tasks", submitRequest{SessionID: "s-1", Text: "quick"})
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		var got models.Task
		json.Unmarshal(rec.Body.Bytes(), &got)
		if got.Status.Terminal() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = postJSON(t, h, "/tasks/"+task.ID+"/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("cancel status = %d, want 409", w.Code)
	}
}

func TestHealthReportsQueueDepth(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "queue_depth") {
		t.Fatalf("body = %s", w.Body)
	}
}

func TestKernelRefreshEndpoint(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	w := postJSON(t, srv.Handler(), "/kernel/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "test-model") {
		t.Fatalf("body = %s", w.Body)
	}
}

func TestEventsStreamDeliversLifecycle(t *testing.T) {
	srv, broker, cancel := newTestServer(t)
	defer cancel()

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.Handler().ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler time to subscribe, then publish.
	time.Sleep(50 * time.Millisecond)
	broker.Emit(middleware.Event{Type: middleware.EventTaskQueued, TaskID: "t-events"})

	<-done
	body := w.Body.String()
	if !strings.Contains(body, "event: task_queued") || !strings.Contains(body, "t-events") {
		t.Fatalf("stream body = %q", body)
	}
}
