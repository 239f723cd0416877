// Package question defines the local question schema that remote content is
// mapped into and that the grader evaluates.
package question

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// InteractionType is how a learner answers a question.
type InteractionType string

const (
	MultipleChoice InteractionType = "multiple_choice"
	FreeResponse   InteractionType = "free_response"
)

// Choice is one option of a multiple-choice question.
type Choice struct {
	Text        string `json:"text"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

// Image is an optional figure attached to a question.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	AltText string `json:"alt_text"`
}

// Solution is the worked answer.
type Solution struct {
	Steps       []string `json:"steps"`
	Explanation string   `json:"explanation"`
}

// Question is a single assessment item.
type Question struct {
	ID string `json:"id,omitempty"`

	Prompt  string  `json:"prompt"`
	Stimuli string  `json:"stimuli,omitempty"`
	Images  []Image `json:"images,omitempty"`

	InteractionType InteractionType `json:"interaction_type"`
	Choices         []Choice        `json:"choices,omitempty"`
	CorrectAnswer   string          `json:"correct_answer"`

	Solution        Solution `json:"solution"`
	GradingCriteria string   `json:"grading_criteria,omitempty"`

	Subject    string `json:"subject,omitempty"`
	Grade      int    `json:"grade,omitempty"`
	Standard   string `json:"standard,omitempty"`
	Lesson     string `json:"lesson,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

// Fingerprint identifies a question by prompt, choices and answer key. ID,
// metadata and the worked solution do not contribute.
func (q Question) Fingerprint() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Prompt))
	b.WriteByte(0)
	b.WriteString(string(q.InteractionType))
	b.WriteByte(0)
	for _, c := range q.Choices {
		b.WriteString(strings.TrimSpace(c.Text))
		if c.IsCorrect {
			b.WriteString("\x01")
		}
		b.WriteByte(0)
	}
	b.WriteString(strings.TrimSpace(q.CorrectAnswer))

	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// Key returns the question's ID, or its fingerprint when it has none.
func (q Question) Key() string {
	if q.ID != "" {
		return q.ID
	}
	return q.Fingerprint()
}

// Metadata returns the tagging fields shown to the grader.
func (q Question) Metadata() map[string]any {
	return map[string]any{
		"subject":    q.Subject,
		"grade":      q.Grade,
		"standard":   q.Standard,
		"lesson":     q.Lesson,
		"difficulty": q.Difficulty,
	}
}

// Decode parses and validates a question document.
func Decode(data []byte) (Question, error) {
	if err := ValidateJSON(data); err != nil {
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return Question{}, &ValidationError{Problems: []string{err.Error()}}
	}
	return q, nil
}
