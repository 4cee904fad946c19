package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/session"
)

// maxDocumentSize bounds render request bodies.
const maxDocumentSize = 1 << 20

// Sessions is the part of the session manager the server drives.
type Sessions interface {
	Render(ctx context.Context, sessionID string, document []byte, format dsl.Format) (*session.Result, error)
	Get(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	Inspect(ctx context.Context, sessionID string) ([]domain.WorkNodeInfo, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

var _ Sessions = (*session.Manager)(nil)

// Server serves sessions over HTTP.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metricsPath string
	gatherer    prometheus.Gatherer
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics exposes g in the prometheus text format at path.
func WithMetrics(path string, g prometheus.Gatherer) Option {
	return func(o *options) {
		o.metricsPath = path
		o.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the sessions.
//
//	POST   /sessions/{id}/render   body: YAML or JSON document
//	GET    /sessions
//	GET    /sessions/{id}          last snapshot
//	GET    /sessions/{id}/html     last snapshot as text/html
//	GET    /sessions/{id}/tree     committed work tree
//	GET    /sessions/{id}/events   render results (SSE)
//	DELETE /sessions/{id}
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	server := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(o.logger),
		logger:   o.logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if o.gatherer != nil {
		r.Handle(o.metricsPath, promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/render", server.Render)
			r.Get("/html", server.GetHTML)
			r.Get("/tree", server.GetTree)
			r.Get("/events", server.SubscribeEvents)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RenderResponse is the body of a successful render.
// Warning is set when the commit was incomplete.
type RenderResponse struct {
	*session.Result
	Warning string `json:"warning,omitempty"`
}

// Render handles POST /sessions/{id}/render.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusRequestEntityTooLarge)
		s.logger.Warn("Render: Invalid request body", "session_id", id, "err", err)
		return
	}

	res, err := s.Sessions.Render(r.Context(), id, body, dsl.FormatFor(r.Header.Get("Content-Type")))
	resp := RenderResponse{Result: res}
	if err != nil {
		if !errors.Is(err, domain.ErrCommitIncomplete) || res == nil {
			s.writeError(w, "Render", id, err)
			return
		}
		resp.Warning = err.Error()
		s.logger.Warn("Render: commit incomplete", "session_id", id, "err", err)
	}

	if data, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(id, data, res.Mutations)
	}
	writeJSON(w, s.logger, resp)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, "List", "", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, s.logger, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "Get", id, err)
		return
	}
	writeJSON(w, s.logger, snap)
}

// GetHTML handles GET /sessions/{id}/html.
func (s *Server) GetHTML(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "GetHTML", id, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, snap.HTML)
}

// GetTree handles GET /sessions/{id}/tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nodes, err := s.Sessions.Inspect(r.Context(), id)
	if err != nil {
		s.writeError(w, "Inspect", id, err)
		return
	}
	writeJSON(w, s.logger, nodes)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, "Delete", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

func (s *Server) writeError(w http.ResponseWriter, op, sessionID string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "session_id", sessionID, "err", err)
	} else {
		s.logger.Debug(op+" rejected", "session_id", sessionID, "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDocument), errors.Is(err, domain.ErrUnknownComponent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPassAborted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
