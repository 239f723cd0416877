// Package grading asks an LLM to judge question quality against a rubric
// and aggregates verdicts over batches of questions.
package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/p-n-ai/curriculum-atlas/internal/ai"
	"github.com/p-n-ai/curriculum-atlas/internal/question"
)

const temperature = 0.1

const systemPrompt = `You are an expert educational content evaluator.
Your task is to evaluate questions for quality and provide detailed feedback.
You must be extremely strict in your evaluation as these questions will be used to teach students.
A question must pass ALL criteria to be considered acceptable.
If you find ANY issues, the question must fail.
Provide specific, actionable feedback for any failures.`

var verdictPattern = regexp.MustCompile(`Overall verdict:\s*(PASS|FAIL)`)

// Result is the grader's judgement of one question.
type Result struct {
	Passed    bool            `json:"passed"`
	Score     float64         `json:"score"`
	Feedback  *string         `json:"feedback"`
	Scorecard map[string]bool `json:"scorecard"`

	Provider string `json:"-"`
	Model    string `json:"-"`
	Tokens   int    `json:"-"`
}

// FailedCategories returns the scorecard categories marked FAIL, in name order.
func (r Result) FailedCategories() []string {
	var out []string
	for category, ok := range r.Scorecard {
		if !ok {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

// Grader grades questions with an LLM.
type Grader struct {
	llm      ai.Completer
	criteria Criteria
	model    string
}

// Option configures a Grader.
type Option func(*Grader)

// WithModel pins the requested model. By default each provider uses its
// configured model.
func WithModel(model string) Option {
	return func(g *Grader) {
		if model != "" {
			g.model = model
		}
	}
}

// WithCriteria replaces the built-in rubric.
func WithCriteria(c Criteria) Option {
	return func(g *Grader) {
		g.criteria = c
	}
}

// NewGrader creates a grader that sends prompts through llm.
func NewGrader(llm ai.Completer, opts ...Option) *Grader {
	g := &Grader{
		llm:      llm,
		criteria: DefaultCriteria(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grade asks the model to evaluate q. An unparseable answer is a FAIL.
func (g *Grader) Grade(ctx context.Context, q question.Question) (Result, error) {
	prompt, err := g.Prompt(q)
	if err != nil {
		return Result{}, err
	}

	resp, err := g.llm.Complete(ctx, ai.CompletionRequest{
		System:      systemPrompt,
		Messages:    []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		Model:       g.model,
		Temperature: temperature,
		Task:        ai.TaskGrading,
	})
	if err != nil {
		return Result{}, fmt.Errorf("grading question %s: %w", q.Key(), err)
	}

	res := ParseResponse(resp.Content)
	res.Provider = resp.Provider
	res.Model = resp.Model
	res.Tokens = resp.TotalTokens()

	slog.Debug("question graded",
		"question", q.Key(),
		"passed", res.Passed,
		"provider", resp.Provider,
		"model", resp.Model,
		"tokens", res.Tokens,
	)
	return res, nil
}

// Prompt renders the evaluation prompt for q.
func (g *Grader) Prompt(q question.Question) (string, error) {
	doc, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding question: %w", err)
	}
	meta := q.Metadata()

	var b strings.Builder
	b.WriteString("Please evaluate this question for quality according to these criteria:\n\n")
	b.WriteString("Question to evaluate:\n")
	b.Write(doc)
	b.WriteString("\n\nCriteria to check:\n")

	for i, grp := range g.criteria.Groups {
		fmt.Fprintf(&b, "%d. %s:\n", i+1, grp.Name)
		for _, c := range grp.Criteria {
			if c.Field != "" {
				fmt.Fprintf(&b, "   - %s: %v\n", c.Check, meta[c.Field])
				continue
			}
			fmt.Fprintf(&b, "   - %s\n", c.Check)
		}
		b.WriteString("\n")
	}

	b.WriteString("IMPORTANT: Please format your response EXACTLY as follows:\n\n")
	for _, grp := range g.criteria.Groups {
		fmt.Fprintf(&b, "%s:\n", grp.Name)
		b.WriteString("[For each criterion, on a new line:]\n")
		b.WriteString("- PASS/FAIL: [criterion name]\n")
		b.WriteString("  Explanation: [brief explanation]\n\n")
	}
	b.WriteString("Overall verdict: [PASS/FAIL]\n\n")
	b.WriteString("[If any failures:]\n")
	b.WriteString("Detailed feedback:\n")
	b.WriteString("[List specific issues and suggestions for improvement]\n\n")
	b.WriteString("Scorecard:\n")
	for i, grp := range g.criteria.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: [PASS/FAIL]", grp.Name)
	}

	return b.String(), nil
}

// ParseResponse extracts the verdict, feedback and scorecard from a model
// answer. A missing verdict counts as FAIL; feedback is kept only on FAIL.
func ParseResponse(text string) Result {
	passed := false
	if m := verdictPattern.FindStringSubmatch(text); m != nil {
		passed = m[1] == "PASS"
	}

	res := Result{
		Passed:    passed,
		Scorecard: parseScorecard(text),
	}
	if passed {
		res.Score = 1.0
		return res
	}
	res.Feedback = parseFeedback(text)
	return res
}

func parseFeedback(text string) *string {
	const marker = "Detailed feedback:"
	i := strings.Index(text, marker)
	if i < 0 {
		return nil
	}
	body := text[i+len(marker):]
	if j := strings.Index(body, "\n\nScorecard:"); j >= 0 {
		body = body[:j]
	}
	body = strings.TrimSpace(body)
	return &body
}

func parseScorecard(text string) map[string]bool {
	const marker = "Scorecard:"
	scorecard := make(map[string]bool)
	i := strings.Index(text, marker)
	if i < 0 {
		return scorecard
	}
	for _, line := range strings.Split(strings.TrimSpace(text[i+len(marker):]), "\n") {
		category, verdict, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		scorecard[strings.TrimSpace(category)] = strings.TrimSpace(verdict) == "PASS"
	}
	return scorecard
}
