package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is a database-backed catalog of meals.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Find returns every meal whose dietary tags are a superset of tags, ordered by id.
// With no tags the whole catalog is returned.
func (r *Repository) Find(ctx context.Context, tags []string) ([]Meal, error) {
	tags = normalizeTags(tags)

	query := `SELECT id, name, portion_size, ingredients FROM meals`
	var args []any
	if len(tags) > 0 {
		query += ` WHERE id IN (
			SELECT meal_id FROM meal_tags
			WHERE tag IN (` + placeholders(len(tags)) + `)
			GROUP BY meal_id
			HAVING COUNT(DISTINCT tag) = ?)`
		for _, t := range tags {
			args = append(args, t)
		}
		args = append(args, len(tags))
	}
	query += ` ORDER BY id`

	return r.queryMeals(ctx, query, args...)
}

// List returns the whole catalog.
func (r *Repository) List(ctx context.Context) ([]Meal, error) {
	return r.Find(ctx, nil)
}

// GetByIDs retrieves multiple meals by their ids. Unknown ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]Meal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT id, name, portion_size, ingredients FROM meals WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	return r.queryMeals(ctx, query, args...)
}

// Count returns the number of meals in the catalog.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count meals: %w", err)
	}
	return n, nil
}

// Insert stores a new meal, assigning an id when the meal has none.
func (r *Repository) Insert(ctx context.Context, m *Meal) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMeal(ctx, tx, *m); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll deletes the whole catalog and inserts meals in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, meals []Meal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meal_tags`); err != nil {
		return fmt.Errorf("failed to clear meal tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meals`); err != nil {
		return fmt.Errorf("failed to clear meals: %w", err)
	}
	for _, m := range meals {
		if m.ID == "" {
			m.ID = MealID(m.Name)
		}
		if err := insertMeal(ctx, tx, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertMeal(ctx context.Context, tx *sql.Tx, m Meal) error {
	ingredients := m.Ingredients
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients for meal %s: %w", m.Name, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meals (id, name, portion_size, ingredients, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.PortionSize, string(ingredientsJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal %s: %w", m.Name, err)
	}

	for _, tag := range normalizeTags(m.DietaryTags) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meal_tags (meal_id, tag) VALUES (?, ?)`, m.ID, tag); err != nil {
			return fmt.Errorf("failed to insert tag %s for meal %s: %w", tag, m.Name, err)
		}
	}
	return nil
}

func (r *Repository) queryMeals(ctx context.Context, query string, args ...any) ([]Meal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []Meal
	index := make(map[string]int)
	for rows.Next() {
		var (
			m               Meal
			ingredientsJSON string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.PortionSize, &ingredientsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		if err := json.Unmarshal([]byte(ingredientsJSON), &m.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ingredients for meal %s: %w", m.ID, err)
		}
		m.DietaryTags = []string{}
		index[m.ID] = len(meals)
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}
	if len(meals) == 0 {
		return meals, nil
	}

	if err := r.attachTags(ctx, meals, index); err != nil {
		return nil, err
	}
	return meals, nil
}

func (r *Repository) attachTags(ctx context.Context, meals []Meal, index map[string]int) error {
	args := make([]any, len(meals))
	for i, m := range meals {
		args[i] = m.ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT meal_id, tag FROM meal_tags WHERE meal_id IN (`+placeholders(len(meals))+`) ORDER BY meal_id, tag`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query meal tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mealID, tag string
		if err := rows.Scan(&mealID, &tag); err != nil {
			return fmt.Errorf("failed to scan meal tag: %w", err)
		}
		if i, ok := index[mealID]; ok {
			meals[i].DietaryTags = append(meals[i].DietaryTags, tag)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
