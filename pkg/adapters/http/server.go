package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/weave"
	presentation "github.com/aretw0/weave/internal/presentation/graph"
	"github.com/aretw0/weave/internal/validator"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

// Server exposes compiled graphs of one engine over HTTP.
type Server struct {
	engine      *weave.Engine
	graphs      map[string]*graph.Graph
	metrics     http.Handler
	logger      *slog.Logger
	maxBodySize int64
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler replaces the default promhttp handler served at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxBodySize limits request bodies to n bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithLogger sets the request logger. Defaults to the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer registers graphs by name. A later graph with the same name wins.
func NewServer(engine *weave.Engine, graphs []*graph.Graph, opts ...Option) *Server {
	s := &Server{
		engine:      engine,
		graphs:      make(map[string]*graph.Graph, len(graphs)),
		metrics:     promhttp.Handler(),
		logger:      engine.Logger(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, g := range graphs {
		s.graphs[g.Name()] = g
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine *weave.Engine, graphs []*graph.Graph, opts ...Option) http.Handler {
	return NewServer(engine, graphs, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.ListGraphs)
		r.Get("/{name}", s.GetGraph)
		r.Post("/{name}/invoke", s.Invoke)
		r.Post("/{name}/stream", s.Stream)
	})
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", s.GetRun)
		r.Delete("/", s.DeleteRun)
		r.Post("/resume", s.Resume)
	})
	return r
}

// GraphInfo describes a registered graph.
type GraphInfo struct {
	Name              string   `json:"name"`
	Entry             string   `json:"entry"`
	Nodes             []string `json:"nodes"`
	ImplicitTerminals []string `json:"implicit_terminals,omitempty"`
	Mermaid           string   `json:"mermaid,omitempty"`
}

// RunRequest is the body of invoke and stream calls.
type RunRequest struct {
	RunID string       `json:"run_id,omitempty"`
	State domain.State `json:"state"`
}

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "weave-http",
		"version": weave.Version,
	})
}

// ListGraphs handles GET /graphs.
func (s *Server) ListGraphs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.graphs))
	for name := range s.graphs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]GraphInfo, 0, len(names))
	for _, name := range names {
		g := s.graphs[name]
		out = append(out, GraphInfo{Name: name, Entry: g.EntryPoint(), Nodes: g.Nodes()})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetGraph handles GET /graphs/{name}, including its Mermaid diagram.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.graph(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, GraphInfo{
		Name:              g.Name(),
		Entry:             g.EntryPoint(),
		Nodes:             g.Nodes(),
		ImplicitTerminals: validator.Lint(g).ImplicitTerminals,
		Mermaid:           presentation.GenerateMermaid(g, nil),
	})
}

// Invoke handles POST /graphs/{name}/invoke.
func (s *Server) Invoke(w http.ResponseWriter, r *http.Request) {
	g, ok := s.graph(w, r)
	if !ok {
		return
	}
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Execute(r.Context(), g, req.State, runOptions(req)...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stream handles POST /graphs/{name}/stream.
// Steps are written as NDJSON. A failure after the first byte becomes a final
// {"error": ...} line since the status is already sent.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	g, ok := s.graph(w, r)
	if !ok {
		return
	}
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	started := false

	for step, err := range s.engine.Run(r.Context(), g, req.State, runOptions(req)...) {
		if err != nil {
			if !started {
				s.fail(w, r, err)
				return
			}
			s.logger.Warn("stream failed", "graph", g.Name(), "err", err)
			_ = enc.Encode(ErrorResponse{Error: err.Error()})
			return
		}
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(step); err != nil {
			// Client went away; breaking stops the run.
			s.logger.Debug("stream write failed", "graph", g.Name(), "err", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Resume handles POST /runs/{id}/resume?graph=name.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("graph")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "graph query parameter is required"})
		return
	}
	g, ok := s.graphs[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("graph %q not found", name)})
		return
	}

	res, err := s.engine.Resume(r.Context(), g, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	cp, err := s.engine.Sessions().Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Sessions().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	name := chi.URLParam(r, "name")
	g, ok := s.graphs[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("graph %q not found", name)})
	}
	return g, ok
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (RunRequest, bool) {
	var req RunRequest
	if r.ContentLength == 0 {
		return req, true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return req, false
	}
	if err := SanitizeState(req.State); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return req, false
	}
	return req, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		graphErr *domain.GraphValidationError
		routeErr *domain.InvalidRouteError
		stateErr *domain.StateValidationError
		limitErr *domain.StepLimitExceededError
		notImpl  *domain.NotImplementedError
	)
	switch {
	case errors.As(err, &notImpl):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrCheckpointNotFound):
		return http.StatusNotFound
	case errors.As(err, &graphErr), errors.As(err, &routeErr),
		errors.As(err, &stateErr), errors.As(err, &limitErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func runOptions(req RunRequest) []weave.RunOption {
	if req.RunID == "" {
		return nil
	}
	return []weave.RunOption{weave.WithRunID(req.RunID)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
