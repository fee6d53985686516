package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nutriscraper/internal/config"
	"nutriscraper/internal/db"
	"nutriscraper/internal/embeddings"
	"nutriscraper/internal/model"
	"nutriscraper/internal/observability"
	"nutriscraper/internal/repository"
	"nutriscraper/internal/storage"
)

// go run ./cmd/embeddings
// go run ./cmd/embeddings -source=db
// go run ./cmd/embeddings -search="whey com pouco sódio" -category=proteinas
func main() {
	source := flag.String("source", "dataset", "Origem dos produtos: 'dataset' (CSV) ou 'db' (tabela nutrition_facts)")
	search := flag.String("search", "", "Texto para busca semântica em vez de indexar")
	category := flag.String("category", "", "Restringe a busca a uma categoria")
	limit := flag.Int("limit", 5, "Número máximo de resultados da busca")
	minScore := flag.Float64("min-score", 0.2, "Similaridade mínima da busca")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}
	if cfg.DatabaseURL == "" || cfg.OpenAIKey == "" {
		log.Fatalf("DATABASE_URL e OPENAI_API_KEY são obrigatórias")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsPort != "" {
		observability.Start(cfg.MetricsPort)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Não foi possível criar o pool de conexões: %v", err)
	}
	defer pool.Close()

	vectorRepo := &repository.VectorRepository{DB: pool}
	embedder := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey)

	if *search != "" {
		runSearch(ctx, embedder, vectorRepo, *search, *category, *minScore, *limit)
		return
	}

	if err := vectorRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Erro ao preparar tabela de vetores: %v", err)
	}

	products, err := loadProducts(ctx, cfg, *source)
	if err != nil {
		log.Fatalf("Erro ao listar produtos: %v", err)
	}
	slog.Info("gerando embeddings", slog.Int("products", len(products)), slog.Int("workers", cfg.WorkerCount))

	res := embeddings.RunWorkers(ctx, products, embedder, vectorRepo, cfg.WorkerCount)
	log.Printf("Embeddings finalizadas: %d indexados, %d com falha", res.Indexed, res.Failed)
}

func loadProducts(ctx context.Context, cfg *config.Config, source string) ([]model.ProductRecord, error) {
	switch source {
	case "dataset":
		return storage.ReadDataset(cfg.DatasetPath)
	case "db":
		conn, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		repo := &repository.NutritionRepository{DB: conn}
		return repo.List(ctx)
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

func runSearch(ctx context.Context, embedder *embeddings.OpenAIEmbedder, repo *repository.VectorRepository, query, category string, minScore float64, limit int) {
	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		log.Fatalf("Erro ao gerar embedding da busca: %v", err)
	}
	results, err := repo.SearchSimilar(ctx, vec, minScore, limit, category)
	if err != nil {
		log.Fatalf("Erro na busca vetorial: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("Nenhum produto encontrado")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. %s (%s) score=%.3f\n   %s\n", i+1, r.Name, r.Category, r.Score, r.SourceURL)
	}
}
