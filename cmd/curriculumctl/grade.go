package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/curriculum-atlas/internal/ai"
	"github.com/p-n-ai/curriculum-atlas/internal/ccc"
	"github.com/p-n-ai/curriculum-atlas/internal/grading"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/cache"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/config"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/database"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

// budgetTTL keeps shared run budgets in Redis well past any single run.
const budgetTTL = 24 * time.Hour

type gradeOptions struct {
	standards    []string
	concurrency  int
	budget       int64
	store        bool
	criteriaPath string
	output       string
}

type gradeSummary struct {
	RunID     uuid.UUID               `json:"run_id"`
	Stats     grading.Stats           `json:"stats"`
	PassRate  float64                 `json:"pass_rate"`
	FailRate  float64                 `json:"fail_rate"`
	Breakdown []grading.CategoryCount `json:"breakdown"`
	Failures  []gradeSummaryQuestion  `json:"failures"`
}

type gradeSummaryQuestion struct {
	ID       string  `json:"id"`
	Standard string  `json:"standard"`
	Error    string  `json:"error,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
}

func newGradeCommand(cfg *config.Config) *cobra.Command {
	opts := gradeOptions{
		concurrency:  cfg.Grading.Concurrency,
		budget:       cfg.Grading.TokenBudget,
		criteriaPath: cfg.Grading.CriteriaPath,
	}
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade the CCC questions of one or more standards",
		Long: `grade fetches every question attached to the given standards from the CCC
API, grades them with the configured LLM providers, and prints pass/fail
statistics with failures broken down by scorecard category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.standards, "standard", nil, "standard code to grade (repeatable)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", opts.concurrency, "questions graded at once")
	cmd.Flags().Int64Var(&opts.budget, "budget", opts.budget, "token budget for the run (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.store, "store", false, "persist verdicts to LEARN_DATABASE_URL")
	cmd.Flags().StringVar(&opts.criteriaPath, "criteria", opts.criteriaPath, "grading criteria YAML (default: built-in)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json")
	_ = cmd.MarkFlagRequired("standard")
	return cmd
}

func runGrade(ctx context.Context, w io.Writer, cfg *config.Config, opts gradeOptions) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	router, err := ai.NewRouterFromConfig(cfg.AI)
	if err != nil {
		return err
	}
	if !router.HasProvider() {
		return ai.ErrNoProvider
	}

	criteria := grading.DefaultCriteria()
	if opts.criteriaPath != "" {
		if criteria, err = grading.LoadCriteria(opts.criteriaPath); err != nil {
			return err
		}
	}

	questions, err := fetchQuestions(ctx, cfg, opts.standards)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return errors.New("no questions found for the given standards")
	}

	runID := uuid.New()
	runnerOpts := []grading.RunnerOption{grading.WithConcurrency(opts.concurrency)}

	if opts.budget > 0 {
		budget, closeBudget, err := newBudget(ctx, cfg, runID, opts.budget)
		if err != nil {
			return err
		}
		defer closeBudget()
		runnerOpts = append(runnerOpts, grading.WithBudget(budget))
	}

	if opts.store {
		if cfg.Database.URL == "" {
			return errors.New("--store requires LEARN_DATABASE_URL")
		}
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		store, err := grading.NewPostgresStore(db.Pool)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, grading.WithStore(store))
	}

	grader := grading.NewGrader(router, grading.WithCriteria(criteria))
	report, err := grading.NewRunner(grader, runnerOpts...).RunWithID(ctx, runID, questions)
	if err != nil {
		return fmt.Errorf("grading run %s: %w", runID, err)
	}

	summary := summarize(report)
	if opts.output == "json" {
		return printJSON(w, summary)
	}
	return printSummary(w, summary)
}

func fetchQuestions(ctx context.Context, cfg *config.Config, standards []string) ([]question.Question, error) {
	e := ccc.NewEnricher(ccc.NewClient(cfg.CCC.BaseURL, cfg.CCC.Timeout))

	var out []question.Question
	for _, code := range standards {
		qs, err := e.Questions(ctx, code)
		if errors.Is(err, ccc.ErrNoStandard) {
			slog.Warn("standard not found in CCC", "standard_code", code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching questions for %s: %w", code, err)
		}
		slog.Info("fetched questions", "standard_code", code, "count", len(qs))
		out = append(out, qs...)
	}
	return out, nil
}

// newBudget returns a Redis-backed budget when a cache is configured, so
// concurrent runs sharing a run id draw from one pool, and an in-process
// budget otherwise.
func newBudget(ctx context.Context, cfg *config.Config, runID uuid.UUID, limit int64) (ai.BudgetChecker, func(), error) {
	if cfg.Cache.URL == "" {
		b := ai.NewInMemoryBudget()
		b.SetBudget(runID.String(), limit)
		return b, func() {}, nil
	}
	c, err := cache.New(ctx, cfg.Cache.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to cache: %w", err)
	}
	return ai.NewSharedBudget(c, limit, budgetTTL), func() { _ = c.Close() }, nil
}

func summarize(r grading.Report) gradeSummary {
	s := gradeSummary{
		RunID:     r.RunID,
		Stats:     r.Stats,
		PassRate:  r.Stats.PassRate(),
		FailRate:  r.Stats.FailRate(),
		Breakdown: r.Stats.Breakdown(),
		Failures:  []gradeSummaryQuestion{},
	}
	for _, o := range r.Outcomes {
		if o.Err == nil && o.Result.Passed {
			continue
		}
		f := gradeSummaryQuestion{ID: o.Question.Key(), Standard: o.Question.Standard}
		if o.Err != nil {
			f.Error = o.Err.Error()
		} else {
			f.Feedback = o.Result.Feedback
		}
		s.Failures = append(s.Failures, f)
	}
	return s
}

func printSummary(w io.Writer, s gradeSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "total\t%d\n", s.Stats.Total)
	fmt.Fprintf(tw, "passed\t%d\t%.1f%%\n", s.Stats.Passed, s.PassRate)
	fmt.Fprintf(tw, "failed\t%d\t%.1f%%\n", s.Stats.Failed, s.FailRate)
	fmt.Fprintf(tw, "errored\t%d\n", s.Stats.Errored)
	fmt.Fprintf(tw, "skipped\t%d\n", s.Stats.Skipped)

	if len(s.Breakdown) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "CATEGORY\tFAILURES\tSHARE")
		for _, c := range s.Breakdown {
			fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", c.Category, c.Count, c.Share)
		}
	}
	return tw.Flush()
}
