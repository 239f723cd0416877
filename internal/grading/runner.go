package grading

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/curriculum-atlas/internal/ai"
	"github.com/p-n-ai/curriculum-atlas/internal/metrics"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

// DefaultConcurrency is the number of questions graded at once.
const DefaultConcurrency = 4

// ErrBudgetExhausted marks questions skipped because the run ran out of tokens.
var ErrBudgetExhausted = errors.New("token budget exhausted")

// QuestionGrader grades a single question. *Grader satisfies it.
type QuestionGrader interface {
	Grade(ctx context.Context, q question.Question) (Result, error)
}

// Outcome is the grading result for one question of a run.
type Outcome struct {
	Question question.Question
	Result   Result
	Err      error
}

// Stats summarizes a run.
type Stats struct {
	Total              int            `json:"total"`
	Passed             int            `json:"passed"`
	Failed             int            `json:"failed"`
	Errored            int            `json:"errored"`
	Skipped            int            `json:"skipped"`
	FailuresByCategory map[string]int `json:"failures_by_category"`
}

// CategoryCount is one row of the failures-by-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	// Share is Count as a percentage of failed questions.
	Share float64 `json:"share"`
}

// PassRate returns the percentage of graded questions that passed.
func (s Stats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total) * 100
}

// FailRate returns the percentage of graded questions that failed.
func (s Stats) FailRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Total) * 100
}

// Breakdown lists failing categories, most frequent first.
func (s Stats) Breakdown() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.FailuresByCategory))
	for c, n := range s.FailuresByCategory {
		share := 0.0
		if s.Failed > 0 {
			share = float64(n) / float64(s.Failed) * 100
		}
		out = append(out, CategoryCount{Category: c, Count: n, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (s *Stats) add(o Outcome) {
	switch {
	case errors.Is(o.Err, ErrBudgetExhausted):
		s.Skipped++
	case o.Err != nil:
		s.Errored++
	case o.Result.Passed:
		s.Total++
		s.Passed++
	default:
		s.Total++
		s.Failed++
		for _, c := range o.Result.FailedCategories() {
			s.FailuresByCategory[c]++
		}
	}
}

// Report is the result of a grading run.
type Report struct {
	RunID    uuid.UUID
	Outcomes []Outcome
	Stats    Stats
}

// Runner grades batches of questions with bounded concurrency.
type Runner struct {
	grader      QuestionGrader
	concurrency int
	budget      ai.BudgetChecker
	store       Store
	metrics     *metrics.Metrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency bounds how many questions are graded at once.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithBudget stops grading once the run's token budget is spent. The run id
// is the budget scope.
func WithBudget(b ai.BudgetChecker) RunnerOption {
	return func(r *Runner) {
		r.budget = b
	}
}

// WithStore persists every verdict.
func WithStore(s Store) RunnerOption {
	return func(r *Runner) {
		r.store = s
	}
}

// WithRunnerMetrics records verdicts and token usage.
func WithRunnerMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a batch runner over g.
func NewRunner(g QuestionGrader, opts ...RunnerOption) *Runner {
	r := &Runner{grader: g, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run grades every question under a new run id. Per-question failures are
// reported in the outcomes and never abort the run; only cancellation of ctx
// does, in which case the partial report is returned with ctx's error.
func (r *Runner) Run(ctx context.Context, questions []question.Question) (Report, error) {
	return r.RunWithID(ctx, uuid.New(), questions)
}

// RunWithID is Run with a caller-chosen run id, e.g. one with a preset budget.
func (r *Runner) RunWithID(ctx context.Context, runID uuid.UUID, questions []question.Question) (Report, error) {
	scope := runID.String()
	outcomes := make([]Outcome, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, q := range questions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Question: q, Err: err}
				return err
			}
			outcomes[i] = r.gradeOne(gctx, scope, q)
			if r.store != nil && outcomes[i].Err == nil {
				if err := r.store.SaveGrade(gctx, toRecord(runID, q, outcomes[i].Result)); err != nil {
					slog.Error("saving grade", "run_id", scope, "question", q.Key(), "error", err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	report := Report{
		RunID:    runID,
		Outcomes: outcomes,
		Stats:    Stats{FailuresByCategory: make(map[string]int)},
	}
	for _, o := range outcomes {
		report.Stats.add(o)
	}

	slog.Info("grading run finished",
		"run_id", scope,
		"total", report.Stats.Total,
		"passed", report.Stats.Passed,
		"failed", report.Stats.Failed,
		"errored", report.Stats.Errored,
		"skipped", report.Stats.Skipped,
	)
	return report, err
}

func (r *Runner) gradeOne(ctx context.Context, scope string, q question.Question) Outcome {
	if r.budget != nil {
		ok, err := r.budget.Check(ctx, scope)
		if err != nil {
			return Outcome{Question: q, Err: err}
		}
		if !ok {
			return Outcome{Question: q, Err: ErrBudgetExhausted}
		}
	}

	res, err := r.grader.Grade(ctx, q)
	if err != nil {
		slog.Warn("grading failed", "run_id", scope, "question", q.Key(), "error", err)
		return Outcome{Question: q, Err: err}
	}

	if r.budget != nil {
		if err := r.budget.Record(ctx, scope, res.Tokens); err != nil {
			slog.Warn("recording token usage", "run_id", scope, "error", err)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordGrade(res.Passed, res.FailedCategories())
		r.metrics.RecordTokens(res.Provider, res.Model, res.Tokens)
	}
	return Outcome{Question: q, Result: res}
}

func toRecord(runID uuid.UUID, q question.Question, res Result) GradeRecord {
	return GradeRecord{
		RunID:        runID,
		QuestionID:   q.Key(),
		Fingerprint:  q.Fingerprint(),
		StandardCode: q.Standard,
		Passed:       res.Passed,
		Score:        res.Score,
		Feedback:     res.Feedback,
		Scorecard:    res.Scorecard,
		Model:        res.Model,
		Tokens:       res.Tokens,
		GradedAt:     time.Now(),
	}
}
