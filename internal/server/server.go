// Package server exposes the HTTP control surface: session lifecycle
// endpoints, the live-analysis feed (polling and websocket), health probes,
// and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MdSameerBaba/orbmech-interview/internal/analytics"
	"github.com/MdSameerBaba/orbmech-interview/internal/config"
	"github.com/MdSameerBaba/orbmech-interview/internal/question"
	"github.com/MdSameerBaba/orbmech-interview/internal/session"
)

// Server is the HTTP front end. One orchestrator, many created (but at most
// one running) sessions.
type Server struct {
	orch      *session.Orchestrator
	generator *question.Generator
	store     *analytics.Store // nil when analytics is disabled

	mu       sync.Mutex
	sessions map[string]*session.Session
	active   string // session ID currently running, "" when idle

	httpServer *http.Server
}

// New builds a Server listening on addr. store may be nil.
func New(addr string, orch *session.Orchestrator, gen *question.Generator, store *analytics.Store) *Server {
	s := &Server{
		orch:      orch,
		generator: gen,
		store:     store,
		sessions:  make(map[string]*session.Session),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("POST /api/sessions/{id}/start", s.handleStart)
	mux.HandleFunc("POST /api/sessions/{id}/stop", s.handleStop)
	mux.HandleFunc("POST /api/sessions/{id}/pause", s.handlePause)
	mux.HandleFunc("POST /api/sessions/{id}/resume", s.handleResume)
	mux.HandleFunc("POST /api/sessions/{id}/skip", s.handleSkip)
	mux.HandleFunc("GET /api/live", s.handleLive)
	mux.HandleFunc("GET /api/live/ws", s.handleLiveWS)
	mux.HandleFunc("GET /api/users/{id}/reports", s.handleReports)
	mux.HandleFunc("GET /api/users/{id}/trend", s.handleTrend)
	mux.HandleFunc("GET /api/responses/similar", s.handleSimilar)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down within the given
// grace period.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

type createRequest struct {
	UserID           string `json:"user_id"`
	Company          string `json:"company"`
	Role             string `json:"role"`
	InterviewType    string `json:"interview_type"`
	Difficulty       string `json:"difficulty"`
	CandidateSummary string `json:"candidate_summary"`
}

type createResponse struct {
	ID        string          `json:"id"`
	Questions int             `json:"questions"`
	Source    question.Source `json:"source"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	it := config.InterviewType(req.InterviewType)
	if it == "" {
		it = config.InterviewMixed
	}
	if !it.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown interview type %q", req.InterviewType))
		return
	}
	diff := config.Difficulty(req.Difficulty)
	if diff == "" {
		diff = config.DifficultyMid
	}
	if !diff.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown difficulty %q", req.Difficulty))
		return
	}

	set := s.generator.Generate(r.Context(), question.Context{
		Company:          req.Company,
		Role:             req.Role,
		Type:             it,
		Difficulty:       diff,
		CandidateSummary: req.CandidateSummary,
	})
	sess := session.New(req.UserID, req.Company, req.Role, it, diff, set.Questions)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, createResponse{
		ID:        sess.ID,
		Questions: len(sess.Questions),
		Source:    set.Source,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown session %q", id))
		return
	}

	if err := s.orch.Start(r.Context(), sess); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrSessionActive) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}

	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "started": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, known := s.sessions[id]
	activeID := s.active
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown session %q", id))
		return
	}
	if activeID != id {
		writeError(w, http.StatusConflict, fmt.Errorf("session %q is not running", id))
		return
	}

	rep, err := s.orch.Stop(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	sess := s.sessions[id]
	s.active = ""
	s.mu.Unlock()

	s.indexResponses(r.Context(), sess)
	writeJSON(w, http.StatusOK, rep)
}

// indexResponses feeds the finished session's transcripts into the semantic
// index. Best effort; a dead store never fails a stop.
func (s *Server) indexResponses(ctx context.Context, sess *session.Session) {
	if s.store == nil || sess == nil {
		return
	}
	for _, resp := range sess.Responses {
		if resp.Fallback || resp.Transcript == "" {
			continue
		}
		if err := s.store.IndexResponse(ctx, sess.ID, resp.QuestionID, resp.Transcript); err != nil {
			slog.Warn("indexing response failed", "session", sess.ID, "question", resp.QuestionID, "error", err)
		}
	}
}

// handleSimilar returns past responses semantically close to the q query
// parameter.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("analytics store not configured"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing q parameter"))
		return
	}
	matches, err := s.store.SimilarResponses(r.Context(), q, 5)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, r.PathValue("id")) {
		return
	}
	s.orch.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, r.PathValue("id")) {
		return
	}
	s.orch.Resume()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if !s.requireActive(w, r.PathValue("id")) {
		return
	}
	s.orch.Skip()
	w.WriteHeader(http.StatusNoContent)
}

// requireActive writes an error and returns false unless id is the running
// session.
func (s *Server) requireActive(w http.ResponseWriter, id string) bool {
	s.mu.Lock()
	_, known := s.sessions[id]
	activeID := s.active
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown session %q", id))
		return false
	}
	if activeID != id {
		writeError(w, http.StatusConflict, session.ErrNoSession)
		return false
	}
	return true
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Live())
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("analytics store not configured"))
		return
	}
	reports, err := s.store.ListReports(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("analytics store not configured"))
		return
	}
	trend, err := s.store.Trend(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Errorf("postgres: %w", err))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
