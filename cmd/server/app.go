package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/curriculum-atlas/internal/ai"
	"github.com/p-n-ai/curriculum-atlas/internal/catalog"
	"github.com/p-n-ai/curriculum-atlas/internal/ccc"
	"github.com/p-n-ai/curriculum-atlas/internal/curriculum"
	"github.com/p-n-ai/curriculum-atlas/internal/grading"
	"github.com/p-n-ai/curriculum-atlas/internal/metrics"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/cache"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/config"
	"github.com/p-n-ai/curriculum-atlas/internal/platform/database"
	"github.com/p-n-ai/curriculum-atlas/internal/web"
)

// app is the wired server: the HTTP handler plus whatever connections it
// holds open.
type app struct {
	handler http.Handler
	closers []func()
}

// newApp wires every component from cfg. Redis, PostgreSQL and the AI
// providers are optional; a configured one that cannot be reached is an error.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	m := metrics.NewMetrics()
	webOpts := []web.Option{web.WithMetrics(m)}

	dataset := curriculum.NewDataset(cfg.Data.CurriculumPath, cfg.Data.ContentPath,
		curriculum.WithLoadHook(func(s *curriculum.Snapshot) {
			m.RecordDatasetLoad(len(s.Standards), len(s.Lessons), len(s.Items), len(s.Diagnostics))
			for _, d := range s.Diagnostics {
				slog.Warn("dataset diagnostic", "source", d.Source, "message", d.Message)
			}
		}),
	)
	if cfg.Data.Watch {
		if err := curriculum.Watch(ctx, dataset); err != nil {
			return nil, fmt.Errorf("watching dataset: %w", err)
		}
	}

	client := ccc.NewClient(cfg.CCC.BaseURL, cfg.CCC.Timeout)
	remote := ccc.NewEnricher(client, ccc.WithMetrics(m))
	var enricher catalog.Enricher = remote

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		enricher = ccc.NewCachingEnricher(remote, c, cfg.Cache.TTL)
		webOpts = append(webOpts, web.WithReadinessCheck("cache", c))
		slog.Info("enrichment cache enabled", "ttl", cfg.Cache.TTL)
	}

	var store grading.Store
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		pg, err := grading.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		store = pg
		webOpts = append(webOpts, web.WithReadinessCheck("database", db))
	}

	grader, router, err := newGrader(cfg, store, m)
	if err != nil {
		a.Close()
		return nil, err
	}
	if grader != nil {
		webOpts = append(webOpts, web.WithGrader(grader), web.WithReadinessCheck("ai", router))
	}

	svc := catalog.NewService(dataset, enricher, client)
	a.handler = web.NewServer(svc, webOpts...)
	return a, nil
}

// newGrader returns nil when no AI provider is configured, which leaves the
// grading endpoint answering 503.
func newGrader(cfg *config.Config, store grading.Store, m *metrics.Metrics) (*grading.RecordingGrader, *ai.Router, error) {
	if !cfg.HasAIProvider() {
		slog.Warn("no AI provider configured, question grading disabled")
		return nil, nil, nil
	}
	router, err := ai.NewRouterFromConfig(cfg.AI)
	if err != nil {
		return nil, nil, err
	}

	criteria := grading.DefaultCriteria()
	if cfg.Grading.CriteriaPath != "" {
		criteria, err = grading.LoadCriteria(cfg.Grading.CriteriaPath)
		if err != nil {
			return nil, nil, err
		}
	}
	return grading.NewRecordingGrader(grading.NewGrader(router, grading.WithCriteria(criteria)), store, m), router, nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
