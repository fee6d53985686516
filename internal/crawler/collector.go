package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"nutriscraper/internal/config"
	"nutriscraper/internal/model"
	"nutriscraper/internal/observability"
	"nutriscraper/internal/parser"
)

// Collector walks the category listings and gathers product URLs.
type Collector struct {
	categories []config.Category
	maxPages   int
	pages      PageSource
}

func NewCollector(cfg *config.Config, pages PageSource) *Collector {
	return &Collector{
		categories: cfg.Categories,
		maxPages:   cfg.MaxPages,
		pages:      pages,
	}
}

// Collect returns one entry per configured category. A category whose listing
// fails is logged and recorded in the summary with whatever URLs were found
// before the failure; the other categories still run.
func (c *Collector) Collect(ctx context.Context) (model.CategoryURLMap, Summary) {
	urls := make(model.CategoryURLMap, len(c.categories))
	sum := Summary{Stage: StageCollect, Total: len(c.categories)}

	for _, cat := range c.categories {
		slog.Info("coletando URLs da categoria", slog.String("category", cat.Name))

		found, err := c.CollectCategory(ctx, cat)
		urls[cat.Name] = found
		observability.URLsCollected.WithLabelValues(cat.Name).Set(float64(len(found)))

		if err != nil {
			slog.Error("erro ao coletar categoria",
				slog.String("category", cat.Name),
				slog.Int("urls", len(found)),
				slog.Any("error", err))
			sum.fail(Failure{Stage: StageCollect, Category: cat.Name, URL: failedURL(err), Err: err})
			continue
		}
		slog.Info("produtos encontrados", slog.String("category", cat.Name), slog.Int("urls", len(found)))
		sum.Succeeded++
	}
	return urls, sum
}

// CollectCategory returns the unique product URLs of one category in
// first-seen order. Paginated categories are walked from page 1 until a page
// has no product links or shows the end-of-listing marker.
func (c *Collector) CollectCategory(ctx context.Context, cat config.Category) ([]string, error) {
	if !cat.Paginated {
		links, _, err := c.listing(ctx, cat.SeedURL)
		if err != nil {
			return []string{}, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		return Dedupe(links), nil
	}

	var all []string
	for page := 1; ; page++ {
		if c.maxPages > 0 && page > c.maxPages {
			slog.Warn("limite de páginas atingido",
				slog.String("category", cat.Name),
				slog.Int("max_pages", c.maxPages))
			break
		}

		links, end, err := c.listing(ctx, cat.URLForPage(page))
		if err != nil {
			return Dedupe(all), fmt.Errorf("category %s page %d: %w", cat.Name, page, err)
		}
		if end || len(links) == 0 {
			slog.Info("fim da paginação", slog.String("category", cat.Name), slog.Int("page", page))
			break
		}
		all = append(all, links...)
		slog.Info("página coletada",
			slog.String("category", cat.Name),
			slog.Int("page", page),
			slog.Int("links", len(links)))
	}
	return Dedupe(all), nil
}

func (c *Collector) listing(ctx context.Context, pageURL string) ([]string, bool, error) {
	doc, err := document(ctx, c.pages, pageURL)
	if err != nil {
		return nil, false, err
	}
	return parser.ProductLinks(doc, doc.Url), parser.EndOfListing(doc), nil
}

// Dedupe drops repeated URLs keeping the first occurrence. The result is never nil.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
