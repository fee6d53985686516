package embeddings

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"nutriscraper/internal/crawler"
	"nutriscraper/internal/model"
	"nutriscraper/internal/observability"
)

const chunkSize = 1000

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store receives the chunks of one product. DeleteByURL runs before the
// chunks are saved so re-running the index does not duplicate them.
type Store interface {
	DeleteByURL(ctx context.Context, sourceURL string) error
	Save(ctx context.Context, sourceURL, name, category, content string, embedding []float32) error
}

type Result struct {
	Indexed int
	Failed  int
}

// RunWorkers embeds records with a fixed number of goroutines. A product is
// counted as failed when any of its chunks could not be embedded or stored.
func RunWorkers(ctx context.Context, records []model.ProductRecord, embedder Embedder, store Store, workers int) Result {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan model.ProductRecord)
	var (
		wg      sync.WaitGroup
		indexed atomic.Int64
		failed  atomic.Int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if process(ctx, p, embedder, store) {
					indexed.Add(1)
				} else {
					failed.Add(1)
				}
			}
		}()
	}

feed:
	for _, p := range records {
		select {
		case jobs <- p:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return Result{Indexed: int(indexed.Load()), Failed: int(failed.Load())}
}

func process(ctx context.Context, p model.ProductRecord, embedder Embedder, store Store) bool {
	if err := store.DeleteByURL(ctx, p.URL); err != nil {
		slog.Error("erro ao limpar vetores antigos", slog.String("url", p.URL), slog.Any("error", err))
		return false
	}

	success := true
	for _, c := range Chunk(crawler.ProductToText(&p), chunkSize) {
		embedding, err := embedder.Embed(ctx, c)
		if err != nil {
			slog.Error("erro ao gerar embedding", slog.String("url", p.URL), slog.Any("error", err))
			success = false
			continue
		}
		if err := store.Save(ctx, p.URL, p.Name, p.Category, c, embedding); err != nil {
			slog.Error("erro ao salvar vetor", slog.String("url", p.URL), slog.Any("error", err))
			success = false
			continue
		}
		observability.EmbeddingsTotal.Inc()
	}

	if success {
		slog.Info("produto indexado", slog.String("name", p.Name))
	} else {
		slog.Warn("falha ao indexar produto", slog.String("url", p.URL))
	}
	return success
}
