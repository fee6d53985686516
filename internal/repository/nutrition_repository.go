package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"nutriscraper/internal/model"
)

const nutritionSchema = `
CREATE TABLE IF NOT EXISTS nutrition_facts (
	id            UUID PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	category      TEXT NOT NULL,
	portion       TEXT NOT NULL DEFAULT '',
	calories      DOUBLE PRECISION NOT NULL DEFAULT 0,
	carbs         DOUBLE PRECISION NOT NULL DEFAULT 0,
	protein       DOUBLE PRECISION NOT NULL DEFAULT 0,
	fat           DOUBLE PRECISION NOT NULL DEFAULT 0,
	saturated_fat DOUBLE PRECISION NOT NULL DEFAULT 0,
	fiber         DOUBLE PRECISION NOT NULL DEFAULT 0,
	sugars        DOUBLE PRECISION NOT NULL DEFAULT 0,
	sodium        DOUBLE PRECISION NOT NULL DEFAULT 0,
	collected_at  TIMESTAMPTZ NOT NULL
)`

// NutritionRepository mirrors dataset rows into Postgres, one row per product URL.
type NutritionRepository struct {
	DB *sql.DB
}

func (r *NutritionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, nutritionSchema); err != nil {
		return fmt.Errorf("failed to create nutrition_facts: %w", err)
	}
	return nil
}

// Save inserts p or replaces the row already stored for its URL.
func (r *NutritionRepository) Save(ctx context.Context, p model.ProductRecord) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nutrition_facts WHERE url = $1)", p.URL).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		_, err = r.DB.ExecContext(ctx, `
			UPDATE nutrition_facts
			SET name = $2, category = $3, portion = $4,
			    calories = $5, carbs = $6, protein = $7, fat = $8,
			    saturated_fat = $9, fiber = $10, sugars = $11, sodium = $12,
			    collected_at = $13
			WHERE url = $1
		`, recordArgs(p)...)
	} else {
		_, err = r.DB.ExecContext(ctx, `
			INSERT INTO nutrition_facts
			(url, name, category, portion, calories, carbs, protein, fat,
			 saturated_fat, fiber, sugars, sodium, collected_at, id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, append(recordArgs(p), uuid.New())...)
	}
	return err
}

// Append lets the repository act as an extraction sink.
func (r *NutritionRepository) Append(ctx context.Context, p model.ProductRecord) error {
	return r.Save(ctx, p)
}

func (r *NutritionRepository) List(ctx context.Context) ([]model.ProductRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT url, name, category, portion, calories, carbs, protein, fat,
		       saturated_fat, fiber, sugars, sodium, collected_at
		FROM nutrition_facts
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.ProductRecord
	for rows.Next() {
		var p model.ProductRecord
		if err := rows.Scan(
			&p.URL, &p.Name, &p.Category, &p.Portion,
			&p.Calories, &p.Carbs, &p.Protein, &p.Fat,
			&p.SaturatedFat, &p.Fiber, &p.Sugars, &p.Sodium,
			&p.CollectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan nutrition_facts: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// recordArgs orders p's fields as $1..$13 of the statements above.
func recordArgs(p model.ProductRecord) []any {
	return []any{
		p.URL, p.Name, p.Category, p.Portion,
		p.Calories, p.Carbs, p.Protein, p.Fat,
		p.SaturatedFat, p.Fiber, p.Sugars, p.Sodium,
		p.CollectedAt,
	}
}
