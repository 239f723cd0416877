package ccc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/p-n-ai/curriculum-atlas/internal/curriculum"
	"github.com/p-n-ai/curriculum-atlas/internal/metrics"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

// ErrNoStandard is returned by Questions when the search finds nothing.
var ErrNoStandard = errors.New("no standard found")

// Outcome classifies an enrichment attempt.
type Outcome int

const (
	OutcomeNoMatch Outcome = iota
	OutcomeMatched
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one enrichment attempt. Items is never nil.
type Result struct {
	Items   []curriculum.ContentItem `json:"items"`
	Outcome Outcome                  `json:"outcome"`
	Err     error                    `json:"-"`
}

// API is the subset of Client used by Enricher.
type API interface {
	SearchStandards(ctx context.Context, keyword string) ([]StandardRecord, error)
	ContentByItemID(ctx context.Context, itemID string) ([]ContentRecord, error)
}

// Enricher looks up content for a standard code in the CCC API.
type Enricher struct {
	api     API
	metrics *metrics.Metrics
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithMetrics records every attempt's outcome and latency.
func WithMetrics(m *metrics.Metrics) EnricherOption {
	return func(e *Enricher) {
		e.metrics = m
	}
}

// NewEnricher creates an enricher over api.
func NewEnricher(api API, opts ...EnricherOption) *Enricher {
	e := &Enricher{api: api}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich searches for standardCode and collects the content of every matching
// standard, in search order. Any failed call fails the whole attempt with no
// items.
func (e *Enricher) Enrich(ctx context.Context, standardCode string) Result {
	start := time.Now()
	res := e.enrich(ctx, standardCode)

	if e.metrics != nil {
		e.metrics.RecordEnrichment(res.Outcome.String(), time.Since(start))
	}
	if res.Outcome == OutcomeFailed {
		slog.Warn("remote enrichment failed", "standard_code", standardCode, "error", res.Err)
	} else {
		slog.Info("remote enrichment", "standard_code", standardCode, "outcome", res.Outcome.String(), "items", len(res.Items))
	}
	return res
}

func (e *Enricher) enrich(ctx context.Context, standardCode string) Result {
	standards, err := e.api.SearchStandards(ctx, standardCode)
	if err != nil {
		return failed(err)
	}

	items := []curriculum.ContentItem{}
	for _, std := range standards {
		records, err := e.api.ContentByItemID(ctx, std.ID)
		if err != nil {
			return failed(err)
		}
		for _, r := range records {
			items = append(items, toContentItem(r, standardCode))
		}
	}

	if len(items) == 0 {
		return Result{Items: items, Outcome: OutcomeNoMatch}
	}
	return Result{Items: items, Outcome: OutcomeMatched}
}

func failed(err error) Result {
	return Result{Items: []curriculum.ContentItem{}, Outcome: OutcomeFailed, Err: err}
}

func toContentItem(r ContentRecord, standardCode string) curriculum.ContentItem {
	return curriculum.ContentItem{
		ID:           r.ItemID(),
		Title:        r.Name,
		Type:         r.Type,
		StandardCode: standardCode,
		Source:       curriculum.SourceCCC,
		Content:      r.Content,
	}
}

// questionContent is the payload of a "Question" content record.
type questionContent struct {
	QuestionText        *string          `json:"question_text"`
	QuestionType        string           `json:"question_type"`
	Choices             []questionChoice `json:"choices"`
	CorrectAnswer       *string          `json:"correct_answer"`
	SolutionSteps       []string         `json:"solution_steps"`
	SolutionExplanation string           `json:"solution_explanation"`
	Difficulty          *int             `json:"difficulty"`
}

type questionChoice struct {
	Text        *string `json:"text"`
	IsCorrect   *bool   `json:"is_correct"`
	Explanation string  `json:"explanation"`
}

// Questions returns the question records attached to the first standard
// matching standardCode. Records missing required fields are skipped.
func (e *Enricher) Questions(ctx context.Context, standardCode string) ([]question.Question, error) {
	standards, err := e.api.SearchStandards(ctx, standardCode)
	if err != nil {
		return nil, err
	}
	if len(standards) == 0 {
		return nil, fmt.Errorf("%w for code %s", ErrNoStandard, standardCode)
	}
	std := standards[0]

	records, err := e.api.ContentByItemID(ctx, std.ID)
	if err != nil {
		return nil, err
	}

	questions := []question.Question{}
	for _, r := range records {
		if r.Type != "Question" {
			continue
		}
		q, err := toQuestion(r, std, standardCode)
		if err != nil {
			slog.Warn("skipping malformed question", "id", r.ItemID(), "standard_code", standardCode, "error", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func toQuestion(r ContentRecord, std StandardRecord, standardCode string) (question.Question, error) {
	var c questionContent
	if err := json.Unmarshal(r.Content, &c); err != nil {
		return question.Question{}, fmt.Errorf("decoding content: %w", err)
	}
	if c.QuestionText == nil {
		return question.Question{}, errors.New("missing question_text")
	}
	if c.CorrectAnswer == nil {
		return question.Question{}, errors.New("missing correct_answer")
	}

	q := question.Question{
		ID:              r.ItemID(),
		Prompt:          *c.QuestionText,
		InteractionType: question.MultipleChoice,
		CorrectAnswer:   *c.CorrectAnswer,
		Solution: question.Solution{
			Steps:       c.SolutionSteps,
			Explanation: c.SolutionExplanation,
		},
		Grade:      educationGrade(std.EducationLevel),
		Standard:   standardCode,
		Lesson:     std.HumanCodingScheme,
		Difficulty: 1,
	}
	if q.Solution.Steps == nil {
		q.Solution.Steps = []string{}
	}
	if c.QuestionType != "" {
		q.InteractionType = question.InteractionType(c.QuestionType)
	}
	if c.Difficulty != nil {
		q.Difficulty = *c.Difficulty
	}

	for i, ch := range c.Choices {
		if ch.Text == nil || ch.IsCorrect == nil {
			return question.Question{}, fmt.Errorf("choice %d: missing text or is_correct", i)
		}
		q.Choices = append(q.Choices, question.Choice{
			Text:        *ch.Text,
			IsCorrect:   *ch.IsCorrect,
			Explanation: ch.Explanation,
		})
	}
	return q, nil
}

// educationGrade reads the first numeric education level ("03" -> 3), or 0.
func educationGrade(raw json.RawMessage) int {
	var levels []string
	if err := json.Unmarshal(raw, &levels); err != nil || len(levels) == 0 {
		return 0
	}
	n, err := strconv.Atoi(levels[0])
	if err != nil || n < 0 || n > 12 {
		return 0
	}
	return n
}
