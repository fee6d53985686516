package commands

import (
	"context"
	"log/slog"

	"nutriscraper/internal/cache"
	"nutriscraper/internal/config"
	"nutriscraper/internal/crawler"
	"nutriscraper/internal/db"
	"nutriscraper/internal/pipeline"
	"nutriscraper/internal/repository"
)

// app holds what the stages share. A single fetcher keeps the politeness
// delay across collect and extract.
type app struct {
	cfg     *config.Config
	fetcher *crawler.Fetcher
	closers []func() error
}

func newApp(cfg *config.Config) *app {
	return &app{cfg: cfg, fetcher: crawler.NewFetcher(cfg)}
}

func (a *app) collectStep() *pipeline.CollectStep {
	return &pipeline.CollectStep{
		Collector:  crawler.NewCollector(a.cfg, a.fetcher),
		URLMapPath: a.cfg.URLMapPath,
	}
}

func (a *app) extractStep(ctx context.Context, resume bool) *pipeline.ExtractStep {
	var pages crawler.PageSource = a.fetcher
	if a.cfg.RedisURL != "" {
		if pc := a.openCache(ctx); pc != nil {
			pages = crawler.CachedSource{Next: a.fetcher, Cache: pc}
		}
	}

	var sinks []crawler.RecordSink
	if a.cfg.DatabaseURL != "" {
		if repo := a.openRepository(ctx); repo != nil {
			sinks = append(sinks, crawler.BestEffort("postgres", repo))
		}
	}

	return &pipeline.ExtractStep{
		Extractor:   crawler.NewExtractor(a.cfg, pages),
		Categories:  a.cfg.CategoryNames(),
		URLMapPath:  a.cfg.URLMapPath,
		DatasetPath: a.cfg.DatasetPath,
		Resume:      resume,
		Sinks:       sinks,
	}
}

// openCache returns nil when Redis is unreachable; extraction then runs uncached.
func (a *app) openCache(ctx context.Context) *cache.PageCache {
	pc, err := cache.New(a.cfg.RedisURL, a.cfg.CacheTTL)
	if err != nil {
		slog.Warn("REDIS_URL inválida, seguindo sem cache", slog.Any("error", err))
		return nil
	}
	if err := pc.Ping(ctx); err != nil {
		slog.Warn("redis indisponível, seguindo sem cache", slog.Any("error", err))
		pc.Close()
		return nil
	}
	a.closers = append(a.closers, pc.Close)
	return pc
}

// openRepository returns nil when Postgres is unreachable; the CSV is still written.
func (a *app) openRepository(ctx context.Context) *repository.NutritionRepository {
	conn, err := db.New(a.cfg.DatabaseURL)
	if err != nil {
		slog.Warn("postgres indisponível, seguindo só com o CSV", slog.Any("error", err))
		return nil
	}
	repo := &repository.NutritionRepository{DB: conn}
	if err := repo.EnsureSchema(ctx); err != nil {
		slog.Warn("erro ao preparar tabela nutrition_facts", slog.Any("error", err))
		conn.Close()
		return nil
	}
	a.closers = append(a.closers, conn.Close)
	return repo
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("erro ao fechar recurso", slog.Any("error", err))
		}
	}
}
