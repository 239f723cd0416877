// Package ai provides a provider-agnostic LLM gateway with ordered fallback.
package ai

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when a completion is requested but nothing is registered.
var ErrNoProvider = errors.New("no AI provider configured")

// TaskType defines the kind of AI task, used for logging and metrics labels.
type TaskType int

const (
	TaskGrading TaskType = iota
	TaskHealthCheck
)

func (t TaskType) String() string {
	switch t {
	case TaskGrading:
		return "grading"
	case TaskHealthCheck:
		return "health_check"
	default:
		return "unknown"
	}
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Completer is the narrow view consumers such as the grader depend on.
// Both a single Provider and the Router satisfy it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
