package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OllamaProvider implements Provider for self-hosted Ollama.
// Ollama exposes an OpenAI-compatible API at /v1, so completions go through
// the OpenAI client; only the health check uses Ollama's native API.
type OllamaProvider struct {
	*OpenAIProvider
	baseURL string
	client  *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.client = client
	}
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(baseURL, model string, opts ...OllamaOption) (*OllamaProvider, error) {
	if model == "" {
		model = "llama3:8b"
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Ollama ignores the key, but the OpenAI client requires one.
	inner, err := NewOpenAIProvider("ollama",
		WithBaseURL(p.baseURL+"/v1"),
		WithHTTPClient(p.client),
		WithProviderName("ollama"),
		WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	p.OpenAIProvider = inner
	return p, nil
}

func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
