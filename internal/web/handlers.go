package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/curriculum-atlas/internal/ai"
	"github.com/p-n-ai/curriculum-atlas/internal/catalog"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

const (
	maxQuestionBody = 1 << 20
	readyTimeout    = 2 * time.Second
)

func (s *Server) handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleReadyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failures := map[string]string{}
		for _, c := range s.checks {
			if err := c.checker.HealthCheck(ctx); err != nil {
				failures[c.name] = err.Error()
			}
		}
		if len(failures) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": failures})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleStandards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.catalog.Standards())
	}
}

func (s *Server) handleLessons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.catalog.Lessons(r.URL.Query().Get("standard_code")))
	}
}

func (s *Server) handleStandardLessons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.catalog.Lessons(r.PathValue("code")))
	}
}

// handleContent accepts standard_code/lesson_id and the older standard/lesson names.
func (s *Server) handleContent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := catalog.ContentFilter{
			StandardCode: firstNonEmpty(q.Get("standard_code"), q.Get("standard")),
			LessonID:     firstNonEmpty(q.Get("lesson_id"), q.Get("lesson")),
		}
		writeJSON(w, http.StatusOK, s.catalog.Content(r.Context(), f))
	}
}

func (s *Server) handleItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := s.catalog.Item(r.Context(), r.PathValue("item_id"))
		if !ok {
			writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleStructure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.catalog.Graph())
	}
}

func (s *Server) handleGrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.grader == nil {
			writeError(w, http.StatusServiceUnavailable, "no LLM provider configured")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQuestionBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
			return
		}
		q, err := question.Decode(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := s.grader.Grade(r.Context(), q)
		if errors.Is(err, ai.ErrNoProvider) {
			writeError(w, http.StatusServiceUnavailable, "no LLM provider configured")
			return
		}
		if err != nil {
			slog.Error("grading question", "question", q.Key(), "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
