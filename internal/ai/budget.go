package ai

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BudgetChecker checks and records token usage against a per-scope budget.
// A scope is typically a grading run id.
type BudgetChecker interface {
	// Check returns true if the scope has budget remaining.
	Check(ctx context.Context, scope string) (bool, error)
	// Record records token usage for a scope.
	Record(ctx context.Context, scope string, tokens int) error
	// Usage returns current usage and limit for a scope. A zero limit means unlimited.
	Usage(ctx context.Context, scope string) (used int64, budget int64, err error)
}

// InMemoryBudget is an in-process budget tracker.
type InMemoryBudget struct {
	mu      sync.RWMutex
	budgets map[string]int64 // scope -> budget limit
	usage   map[string]int64 // scope -> tokens used
}

// NewInMemoryBudget creates a new in-memory budget tracker.
func NewInMemoryBudget() *InMemoryBudget {
	return &InMemoryBudget{
		budgets: make(map[string]int64),
		usage:   make(map[string]int64),
	}
}

// SetBudget sets the token budget for a scope.
func (b *InMemoryBudget) SetBudget(scope string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[scope] = tokens
}

func (b *InMemoryBudget) Check(_ context.Context, scope string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	budget, hasBudget := b.budgets[scope]
	if !hasBudget || budget <= 0 {
		// No budget set means unlimited.
		return true, nil
	}
	return b.usage[scope] < budget, nil
}

func (b *InMemoryBudget) Record(_ context.Context, scope string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[scope] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(_ context.Context, scope string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[scope], b.budgets[scope], nil
}

// CounterStore is the subset of a shared cache that SharedBudget needs.
// *cache.Cache satisfies it.
type CounterStore interface {
	IncrBy(ctx context.Context, key string, n int64, ttl time.Duration) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
}

// SharedBudget tracks usage in a shared counter store so that several
// graders working on the same scope draw from one budget.
type SharedBudget struct {
	store CounterStore
	limit int64
	ttl   time.Duration
}

// NewSharedBudget creates a budget with the same limit for every scope.
// Counters expire ttl after their last update.
func NewSharedBudget(store CounterStore, limit int64, ttl time.Duration) *SharedBudget {
	return &SharedBudget{store: store, limit: limit, ttl: ttl}
}

func (b *SharedBudget) Check(ctx context.Context, scope string) (bool, error) {
	if b.limit <= 0 {
		return true, nil
	}
	used, err := b.store.Counter(ctx, budgetKey(scope))
	if err != nil {
		return false, fmt.Errorf("reading budget: %w", err)
	}
	return used < b.limit, nil
}

func (b *SharedBudget) Record(ctx context.Context, scope string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}
	if _, err := b.store.IncrBy(ctx, budgetKey(scope), int64(tokens), b.ttl); err != nil {
		return fmt.Errorf("recording budget: %w", err)
	}
	return nil
}

func (b *SharedBudget) Usage(ctx context.Context, scope string) (int64, int64, error) {
	used, err := b.store.Counter(ctx, budgetKey(scope))
	if err != nil {
		return 0, 0, fmt.Errorf("reading budget: %w", err)
	}
	return used, b.limit, nil
}

func budgetKey(scope string) string {
	return "budget:" + scope
}
