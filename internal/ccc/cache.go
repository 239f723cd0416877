package ccc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/curriculum-atlas/internal/platform/cache"
)

// ResultCache stores enrichment results. *cache.Cache satisfies it.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, v any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Source produces enrichment results for a standard code.
type Source interface {
	Enrich(ctx context.Context, standardCode string) Result
}

// CachingEnricher serves matched results from a shared cache and falls
// through to the wrapped source on a miss or cache error. Only matched
// results are stored.
type CachingEnricher struct {
	next  Source
	cache ResultCache
	ttl   time.Duration
}

// NewCachingEnricher wraps next with a result cache.
func NewCachingEnricher(next Source, c ResultCache, ttl time.Duration) *CachingEnricher {
	return &CachingEnricher{next: next, cache: c, ttl: ttl}
}

func cacheKey(standardCode string) string {
	return "ccc:enrich:" + standardCode
}

// Enrich returns the cached result for standardCode or asks the wrapped source.
func (c *CachingEnricher) Enrich(ctx context.Context, standardCode string) Result {
	var cached Result
	err := c.cache.GetJSON(ctx, cacheKey(standardCode), &cached)
	switch {
	case err == nil && cached.Outcome == OutcomeMatched:
		return cached
	case err != nil && !errors.Is(err, cache.ErrMiss):
		slog.Warn("enrichment cache read failed", "standard_code", standardCode, "error", err)
	}

	res := c.next.Enrich(ctx, standardCode)
	if res.Outcome != OutcomeMatched {
		return res
	}
	if err := c.cache.SetJSON(ctx, cacheKey(standardCode), res, c.ttl); err != nil {
		slog.Warn("enrichment cache write failed", "standard_code", standardCode, "error", err)
	}
	return res
}
