package grading

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/p-n-ai/curriculum-atlas/internal/metrics"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

// RecordingGrader grades one question at a time, as the HTTP endpoint does,
// and files every verdict under a single run id in store. Save failures are
// logged and never fail the grade.
type RecordingGrader struct {
	grader  QuestionGrader
	store   Store
	runID   uuid.UUID
	metrics *metrics.Metrics
}

// NewRecordingGrader wraps g. A nil store only records metrics.
func NewRecordingGrader(g QuestionGrader, store Store, m *metrics.Metrics) *RecordingGrader {
	return &RecordingGrader{grader: g, store: store, runID: uuid.New(), metrics: m}
}

// RunID is the run every verdict from this grader is stored under.
func (g *RecordingGrader) RunID() uuid.UUID {
	return g.runID
}

func (g *RecordingGrader) Grade(ctx context.Context, q question.Question) (Result, error) {
	res, err := g.grader.Grade(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if g.metrics != nil {
		g.metrics.RecordGrade(res.Passed, res.FailedCategories())
		g.metrics.RecordTokens(res.Provider, res.Model, res.Tokens)
	}
	if g.store != nil {
		if err := g.store.SaveGrade(ctx, toRecord(g.runID, q, res)); err != nil {
			slog.Error("saving grade", "run_id", g.runID.String(), "question", q.Key(), "error", err)
		}
	}
	return res, nil
}
