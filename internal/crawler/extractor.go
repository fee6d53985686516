package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nutriscraper/internal/config"
	"nutriscraper/internal/model"
	"nutriscraper/internal/observability"
	"nutriscraper/internal/parser"
)

// RecordSink receives every product record as soon as it is extracted. ctx is
// the one the extraction runs under.
type RecordSink interface {
	Append(ctx context.Context, r model.ProductRecord) error
}

// Extractor visits product pages and turns their nutrition tables into records.
type Extractor struct {
	categories []string
	pages      PageSource
	now        func() time.Time
}

func NewExtractor(cfg *config.Config, pages PageSource) *Extractor {
	return &Extractor{
		categories: cfg.CategoryNames(),
		pages:      pages,
		now:        time.Now,
	}
}

// Extract processes urls category by category in configured order. URLs in
// done are counted as resumed and not fetched. A product that fails to fetch
// or has no nutrition table is logged and left out; every other product is
// handed to each sink in order. A sink error stops the run.
func (e *Extractor) Extract(ctx context.Context, urls model.CategoryURLMap, done map[string]bool, sinks ...RecordSink) (Summary, error) {
	sum := Summary{Stage: StageExtract, Total: urls.Total()}
	n := 0

	for _, category := range e.categories {
		list := urls[category]
		slog.Info("processando categoria", slog.String("category", category), slog.Int("products", len(list)))

		for _, u := range list {
			n++
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if done[u] {
				sum.Resumed++
				continue
			}

			slog.Info("processando produto",
				slog.Int("n", n),
				slog.Int("total", sum.Total),
				slog.String("url", u))

			record, warnings, err := e.ExtractProduct(ctx, category, u)
			if err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				var structErr *model.ParseStructureError
				if errors.As(err, &structErr) {
					slog.Warn("tabela nutricional não encontrada",
						slog.String("url", u),
						slog.String("selector", structErr.Selector))
					sum.skip(Failure{Stage: StageExtract, Category: category, URL: u, Err: err})
					observability.ProductsTotal.WithLabelValues(category, "skipped").Inc()
					continue
				}
				slog.Error("erro ao processar produto", slog.String("url", u), slog.Any("error", err))
				sum.fail(Failure{Stage: StageExtract, Category: category, URL: u, Err: err})
				observability.ProductsTotal.WithLabelValues(category, "failed").Inc()
				continue
			}

			for _, w := range warnings {
				slog.Warn("valor não numérico normalizado para 0",
					slog.String("url", w.URL),
					slog.String("field", string(w.Field)),
					slog.String("raw", w.Raw))
			}
			sum.Warnings += len(warnings)

			for _, sink := range sinks {
				if err := sink.Append(ctx, record); err != nil {
					return sum, fmt.Errorf("failed to store %s: %w", u, err)
				}
			}
			sum.Succeeded++
			observability.ProductsTotal.WithLabelValues(category, "extracted").Inc()
			slog.Info("produto coletado", slog.String("name", record.Name), slog.String("category", category))
		}
	}
	return sum, nil
}

// ExtractProduct fetches one product page and builds its record.
func (e *Extractor) ExtractProduct(ctx context.Context, category, pageURL string) (model.ProductRecord, []model.ValueNormalizationWarning, error) {
	doc, err := document(ctx, e.pages, pageURL)
	if err != nil {
		return model.ProductRecord{}, nil, err
	}
	page, err := parser.ParseProduct(doc, pageURL)
	if err != nil {
		return model.ProductRecord{}, nil, err
	}
	if len(page.Missing) > 0 {
		slog.Debug("nutrientes ausentes gravados como 0",
			slog.String("url", pageURL),
			slog.Any("missing", page.Missing))
	}

	return model.ProductRecord{
		Name:        page.Name,
		URL:         pageURL,
		Nutrition:   page.Nutrition,
		CollectedAt: e.now(),
		Category:    category,
	}, page.Warnings, nil
}

type bestEffort struct {
	name string
	next RecordSink
}

// BestEffort wraps a secondary sink so its failures are logged instead of
// stopping extraction.
func BestEffort(name string, next RecordSink) RecordSink {
	return bestEffort{name: name, next: next}
}

func (b bestEffort) Append(ctx context.Context, r model.ProductRecord) error {
	if err := b.next.Append(ctx, r); err != nil {
		slog.Warn("falha ao gravar no destino secundário",
			slog.String("sink", b.name),
			slog.String("url", r.URL),
			slog.Any("error", err))
	}
	return nil
}
