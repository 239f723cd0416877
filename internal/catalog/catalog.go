// Package catalog answers the dashboard's read queries over the cached
// dataset, falling back to remote enrichment for unknown standards.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/p-n-ai/curriculum-atlas/internal/ccc"
	"github.com/p-n-ai/curriculum-atlas/internal/curriculum"
)

// Result caps.
const (
	MaxUnfilteredItems = 100
	MaxFilteredItems   = 50
)

// Snapshotter provides the current dataset snapshot. *curriculum.Dataset
// satisfies it.
type Snapshotter interface {
	Snapshot() *curriculum.Snapshot
}

// Enricher looks up remote content for a standard code. *ccc.Enricher and
// *ccc.CachingEnricher satisfy it.
type Enricher interface {
	Enrich(ctx context.Context, standardCode string) ccc.Result
}

// ItemFetcher returns the remote detail payload for a CCC item id.
// *ccc.Client satisfies it.
type ItemFetcher interface {
	RawContentByItemID(ctx context.Context, itemID string) (json.RawMessage, error)
}

// ContentFilter selects content items. StandardCode takes precedence over
// LessonID when both are set.
type ContentFilter struct {
	StandardCode string
	LessonID     string
}

// Service answers catalog queries.
type Service struct {
	data     Snapshotter
	enricher Enricher
	fetcher  ItemFetcher
}

// NewService creates a catalog service. enricher and fetcher may be nil, in
// which case remote lookups are skipped.
func NewService(data Snapshotter, enricher Enricher, fetcher ItemFetcher) *Service {
	return &Service{data: data, enricher: enricher, fetcher: fetcher}
}

// Standards returns every standard in the curriculum.
func (s *Service) Standards() []curriculum.Standard {
	return nonNil(s.data.Snapshot().Standards)
}

// Lessons returns all lessons, or only those tagged with standardCode when it
// is non-empty. Codes are compared exactly.
func (s *Service) Lessons(standardCode string) []curriculum.Lesson {
	lessons := s.data.Snapshot().Lessons
	if standardCode == "" {
		return nonNil(lessons)
	}

	out := []curriculum.Lesson{}
	for _, l := range lessons {
		if l.StandardCode == standardCode {
			out = append(out, l)
		}
	}
	return out
}

// Content returns the items selected by f. A standard with no local items
// triggers exactly one remote enrichment attempt whose items, possibly none,
// are returned instead.
func (s *Service) Content(ctx context.Context, f ContentFilter) []curriculum.ContentItem {
	items := s.data.Snapshot().Items

	switch {
	case f.StandardCode != "":
		out := collect(items, MaxFilteredItems, func(c curriculum.ContentItem) bool {
			return c.MatchesStandard(f.StandardCode)
		})
		if len(out) > 0 || s.enricher == nil {
			return out
		}
		return s.enricher.Enrich(ctx, f.StandardCode).Items

	case f.LessonID != "":
		return collect(items, MaxFilteredItems, func(c curriculum.ContentItem) bool {
			return c.MatchesLesson(f.LessonID)
		})

	default:
		return collect(items, MaxUnfilteredItems, func(curriculum.ContentItem) bool { return true })
	}
}

// Item returns the local item with the given id. Items that reference a CCC
// item are enriched with its remote detail under api_data; a failed lookup
// returns the item unenriched.
func (s *Service) Item(ctx context.Context, id string) (curriculum.ContentItem, bool) {
	for _, c := range s.data.Snapshot().Items {
		if c.ID != id {
			continue
		}
		cfID := c.CFItemID()
		if cfID == "" || s.fetcher == nil {
			return c, true
		}
		data, err := s.fetcher.RawContentByItemID(ctx, cfID)
		if err != nil {
			slog.Error("fetching item detail from CCC", "id", id, "cf_item_id", cfID, "error", err)
			return c, true
		}
		c.APIData = data
		return c, true
	}
	return curriculum.ContentItem{}, false
}

// Graph builds the visualization graph over the current snapshot.
func (s *Service) Graph() curriculum.Graph {
	snap := s.data.Snapshot()
	return curriculum.BuildGraph(snap.Standards, snap.Lessons, snap.Items)
}

// Diagnostics returns the load problems of the current snapshot.
func (s *Service) Diagnostics() []curriculum.Diagnostic {
	return nonNil(s.data.Snapshot().Diagnostics)
}

func collect(items []curriculum.ContentItem, limit int, keep func(curriculum.ContentItem) bool) []curriculum.ContentItem {
	out := []curriculum.ContentItem{}
	for _, c := range items {
		if len(out) >= limit {
			break
		}
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
