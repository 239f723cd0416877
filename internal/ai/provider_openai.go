package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultDeepSeekBaseURL   = "https://api.deepseek.com"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible APIs
// (DeepSeek, OpenRouter) via a configurable base URL.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
}

type openaiSettings struct {
	baseURL    string
	httpClient *http.Client
	name       string
	model      string
	headers    map[string]string
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*openaiSettings)

// WithBaseURL sets the base URL for the OpenAI-compatible API.
func WithBaseURL(url string) OpenAIOption {
	return func(s *openaiSettings) {
		s.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(s *openaiSettings) {
		s.httpClient = client
	}
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) OpenAIOption {
	return func(s *openaiSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithProviderName sets the provider name (for multi-instance use, e.g. "deepseek").
func WithProviderName(name string) OpenAIOption {
	return func(s *openaiSettings) {
		s.name = name
	}
}

// withHeaders adds static headers to every request.
func withHeaders(headers map[string]string) OpenAIOption {
	return func(s *openaiSettings) {
		s.headers = headers
	}
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	s := openaiSettings{
		name:  "openai",
		model: "gpt-4o-mini",
	}
	for _, opt := range opts {
		opt(&s)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", s.name)
	}

	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if len(s.headers) > 0 {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *httpClient
		wrapped.Transport = headerTransport{base: base, headers: s.headers}
		httpClient = &wrapped
	}
	cfg.HTTPClient = httpClient

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		name:   s.name,
		model:  s.model,
	}, nil
}

// NewDeepSeekProvider creates a provider for the DeepSeek API (OpenAI-compatible).
func NewDeepSeekProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultDeepSeekBaseURL),
		WithProviderName("deepseek"),
		WithModel("deepseek-chat"),
	}, opts...)
	return NewOpenAIProvider(apiKey, opts...)
}

// NewOpenRouterProvider creates a provider for OpenRouter, which speaks the
// OpenAI protocol plus attribution headers.
func NewOpenRouterProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultOpenRouterBaseURL),
		WithProviderName("openrouter"),
		WithModel("openai/gpt-4o-mini"),
		withHeaders(map[string]string{
			"HTTP-Referer": "https://github.com/p-n-ai/curriculum-atlas",
			"X-Title":      "Curriculum Atlas",
		}),
	}, opts...)
	return NewOpenAIProvider(apiKey, opts...)
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: buildOpenAIMessages(req),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return CompletionResponse{}, p.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("%s: no choices in response", p.name)
	}

	return CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (p *OpenAIProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: p.model, Name: p.model, MaxTokens: 128000, Description: p.name + " default model"},
	}
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", p.mapError(err))
	}
	return nil
}

func buildOpenAIMessages(req CompletionRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	return messages
}

func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &ErrRateLimit{Provider: p.name, Err: err}
		}
		return &ErrUnavailable{Provider: p.name, Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ErrUnavailable{Provider: p.name, Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &ErrUnavailable{Provider: p.name, Err: err}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
