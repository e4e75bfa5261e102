package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mealplanr/internal/shopping"
)

// PlanRepository is a database-backed repository for weekly meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Get returns the plan of userID for week, or nil when none is stored.
func (r *PlanRepository) Get(ctx context.Context, userID, week string) (*WeekPlan, error) {
	var (
		p                  WeekPlan
		daysJSON, listJSON string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, week, days, shopping_list, created_at, updated_at
		 FROM meal_plans WHERE user_id = ? AND week = ?`,
		userID, week,
	).Scan(&p.ID, &p.UserID, &p.Week, &daysJSON, &listJSON, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan for user %s week %s: %w", userID, week, err)
	}

	if err := json.Unmarshal([]byte(daysJSON), &p.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan days: %w", err)
	}
	if err := json.Unmarshal([]byte(listJSON), &p.ShoppingList); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
	}
	return &p, nil
}

// Put stores plan as the single plan of its user and week, replacing any existing one.
// The stored plan is returned with its id set.
func (r *PlanRepository) Put(ctx context.Context, plan *WeekPlan) (*WeekPlan, error) {
	daysJSON, err := json.Marshal(plan.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meal plan days: %w", err)
	}
	list := plan.ShoppingList
	if list == nil {
		list = shopping.List{}
	}
	listJSON, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	stored := *plan
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO meal_plans (user_id, week, days, shopping_list, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, week) DO UPDATE SET
		   days = excluded.days,
		   shopping_list = excluded.shopping_list,
		   created_at = excluded.created_at,
		   updated_at = excluded.updated_at
		 RETURNING id`,
		plan.UserID, plan.Week, string(daysJSON), string(listJSON), plan.CreatedAt.UTC(), plan.UpdatedAt.UTC(),
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save meal plan for user %s week %s: %w", plan.UserID, plan.Week, err)
	}
	return &stored, nil
}

// Delete removes the plan of userID for week. Deleting a missing plan is not an error.
func (r *PlanRepository) Delete(ctx context.Context, userID, week string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE user_id = ? AND week = ?`, userID, week); err != nil {
		return fmt.Errorf("failed to delete meal plan for user %s week %s: %w", userID, week, err)
	}
	return nil
}
