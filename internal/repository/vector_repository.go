package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const vectorSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS product_knowledge (
	id         UUID PRIMARY KEY,
	source_url TEXT NOT NULL,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  vector(1536) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS product_knowledge_source_url_idx ON product_knowledge (source_url);`

type VectorResult struct {
	SourceURL string
	Name      string
	Category  string
	Content   string
	Score     float64
}

type VectorRepository struct {
	DB *pgxpool.Pool
}

func (r *VectorRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, vectorSchema); err != nil {
		return fmt.Errorf("failed to create product_knowledge: %w", err)
	}
	return nil
}

// DeleteByURL drops the chunks of a product so it can be embedded again.
func (r *VectorRepository) DeleteByURL(ctx context.Context, sourceURL string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM product_knowledge WHERE source_url = $1`, sourceURL)
	return err
}

func (r *VectorRepository) Save(ctx context.Context, sourceURL, name, category, content string, embedding []float32) error {
	// Remove sequências de bytes inválidas para evitar erro "invalid byte sequence for encoding UTF8"
	validContent := strings.ToValidUTF8(content, "")

	_, err := r.DB.Exec(ctx, `
		INSERT INTO product_knowledge
		(id, source_url, name, category, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), sourceURL, name, category, validContent, vectorLiteral(embedding))
	return err
}

// SearchSimilar returns the best chunk per product with cosine similarity
// above minScore. An empty category searches every category.
func (r *VectorRepository) SearchSimilar(ctx context.Context, embedding []float32, minScore float64, limit int, category string) ([]VectorResult, error) {
	params := []any{vectorLiteral(embedding), minScore, limit}
	where := "1 - (embedding <=> $1) > $2"
	if category != "" {
		where += " AND category = $4"
		params = append(params, category)
	}

	query := fmt.Sprintf(`
		SELECT source_url, name, category, content, score
		FROM (
			SELECT DISTINCT ON (source_url) source_url, name, category, content,
			       1 - (embedding <=> $1) AS score
			FROM product_knowledge
			WHERE %s
			ORDER BY source_url, score DESC
		) sub
		ORDER BY score DESC
		LIMIT $3
	`, where)

	slog.Debug("busca vetorial", slog.String("where", where), slog.Int("limit", limit))

	rows, err := r.DB.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []VectorResult
	for rows.Next() {
		var v VectorResult
		if err := rows.Scan(&v.SourceURL, &v.Name, &v.Category, &v.Content, &v.Score); err != nil {
			return nil, fmt.Errorf("failed to scan product_knowledge: %w", err)
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// vectorLiteral converte []float32 para "[v1,v2,...]" (pgvector espera colchetes)
func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
