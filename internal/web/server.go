// Package web serves the dashboard's JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-n-ai/curriculum-atlas/internal/catalog"
	"github.com/p-n-ai/curriculum-atlas/internal/grading"
	"github.com/p-n-ai/curriculum-atlas/internal/metrics"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

// Grader grades a single question. *grading.Grader satisfies it.
type Grader interface {
	Grade(ctx context.Context, q question.Question) (grading.Result, error)
}

// Checker reports whether a backing service is reachable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

type namedCheck struct {
	name    string
	checker Checker
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	catalog *catalog.Service
	grader  Grader
	checks  []namedCheck
	metrics *metrics.Metrics
	router  *http.ServeMux
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithGrader enables the grading endpoint. Without it the endpoint answers 503.
func WithGrader(g Grader) Option {
	return func(s *Server) {
		s.grader = g
	}
}

// WithReadinessCheck adds a dependency checked by /readyz.
func WithReadinessCheck(name string, c Checker) Option {
	return func(s *Server) {
		s.checks = append(s.checks, namedCheck{name: name, checker: c})
	}
}

// WithMetrics records request counts and latencies and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates and configures a new server.
func NewServer(svc *catalog.Service, opts ...Option) *Server {
	s := &Server{
		catalog: svc,
		router:  http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	s.handler = recoverer(s.router)
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.handle("GET /healthz", s.handleHealthz())
	s.handle("GET /readyz", s.handleReadyz())
	if s.metrics != nil {
		s.router.Handle("GET /metrics", promhttp.Handler())
	}

	s.handle("GET /api/standards", s.handleStandards())
	s.handle("GET /api/lessons", s.handleLessons())
	s.handle("GET /api/standards/{code}/lessons", s.handleStandardLessons())
	s.handle("GET /api/ccc-content", s.handleContent())
	s.handle("GET /api/ccc-item/{item_id}", s.handleItem())
	s.handle("GET /api/structure", s.handleStructure())

	s.handle("POST /api/v1/questions/grade", s.handleGrade())
}

// handle registers h under pattern, instrumented when metrics are enabled.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	if s.metrics == nil {
		s.router.HandleFunc(pattern, h)
		return
	}
	s.router.Handle(pattern, instrument(s.metrics, pattern, h))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
