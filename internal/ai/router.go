package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Router tries registered providers in registration order until one succeeds.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	mu        sync.RWMutex
}

// NewRouter creates a new AI router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the router. Registering a name twice replaces
// the provider but keeps its original position in the chain.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Complete routes a request to the first provider that answers.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return CompletionResponse{}, ErrNoProvider
	}

	var errs []error
	for _, name := range r.fallback {
		if err := ctx.Err(); err != nil {
			return CompletionResponse{}, err
		}

		resp, err := r.providers[name].Complete(ctx, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"task", req.Task.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		resp.Provider = name
		slog.Debug("AI request completed",
			"provider", name,
			"task", req.Task.String(),
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("all AI providers failed: %w", errors.Join(errs...))
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// Names returns the registered provider names in fallback order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fallback...)
}

// HealthCheck succeeds when at least one registered provider is reachable.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return ErrNoProvider
	}
	var errs []error
	for _, name := range r.fallback {
		err := r.providers[name].HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return fmt.Errorf("no AI provider reachable: %w", errors.Join(errs...))
}

// Models returns the model ids offered by each provider, in fallback order.
func (r *Router) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, name := range r.fallback {
		for _, m := range r.providers[name].Models() {
			ids = append(ids, name+"/"+m.ID)
		}
	}
	return ids
}
