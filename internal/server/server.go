// Package server exposes the orchestrator over HTTP: task submission and
// inspection, cancellation, the lesson log, kernel control, and a live
// event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mpieniak01/Venom-sub010/internal/kernel"
	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/internal/orchestrator"
	"github.com/mpieniak01/Venom-sub010/internal/state"
	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Server is the HTTP control plane over a running orchestrator core.
type Server struct {
	core    *orchestrator.Core
	records *state.Records
	kernel  *kernel.Manager
	broker  *middleware.Broker

	http *http.Server
}

// New creates the control-plane server.
func New(addr string, core *orchestrator.Core, records *state.Records, km *kernel.Manager, broker *middleware.Broker) *Server {
	s := &Server{core: core, records: records, kernel: km, broker: broker}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /tasks", s.handleSubmit)
	mux.HandleFunc("GET /tasks/{id}", s.handleStatus)
	mux.HandleFunc("POST /tasks/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /lessons", s.handleLessons)
	mux.HandleFunc("POST /kernel/refresh", s.handleKernelRefresh)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// submitRequest is the POST /tasks payload.
type submitRequest struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Intent    map[string]string `json:"intent,omitempty"`
	Priority  string            `json:"priority,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, &models.ErrorEnvelope{
			Kind:      models.ErrKindValidation,
			Message:   fmt.Sprintf("malformed request body: %v", err),
			Component: "server",
		})
		return
	}

	task, err := s.core.Submit(req.SessionID, models.TaskInput{Text: req.Text, Intent: req.Intent}, models.ParsePriority(req.Priority))
	if err != nil {
		writeError(w, statusFor(err), middleware.Wrap(err, "server"))
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.core.Status(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, middleware.Wrap(err, "server"))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.core.Cancel(id); err != nil {
		writeError(w, http.StatusConflict, middleware.Wrap(err, "server"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "cancel": "requested"})
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.records.ListLessons()
	if err != nil {
		writeError(w, http.StatusInternalServerError, middleware.Wrap(err, "server"))
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

func (s *Server) handleKernelRefresh(w http.ResponseWriter, r *http.Request) {
	handle, err := s.kernel.ForceRefresh()
	if err != nil {
		writeError(w, http.StatusBadGateway, middleware.Wrap(err, "kernel"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"model": handle.Config().Model,
		"hash":  handle.Hash(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"queue_depth": s.core.QueueDepth(),
	})
}

// handleEvents streams lifecycle events as server-sent events until the
// client disconnects. The per-client buffer drops on overflow so one slow
// consumer cannot back-pressure the broker.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := make(chan middleware.Event, 64)
	unsubscribe := s.broker.Subscribe(func(e middleware.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}

// statusFor maps a submission error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrQueueSaturated):
		return http.StatusTooManyRequests
	case errors.Is(err, middleware.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, env *models.ErrorEnvelope) {
	writeJSON(w, status, map[string]*models.ErrorEnvelope{"error": env})
}
