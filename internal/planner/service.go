package planner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"mealplanr/internal/catalog"
	"mealplanr/internal/clock"
	"mealplanr/internal/logger"
	"mealplanr/internal/shopping"
	"mealplanr/internal/user"
)

// CatalogStore yields the meals whose dietary tags cover the given tags.
type CatalogStore interface {
	Find(ctx context.Context, tags []string) ([]catalog.Meal, error)
}

// PlanStore persists one plan per user and week. Get returns nil, nil when no plan exists.
type PlanStore interface {
	Get(ctx context.Context, userID, week string) (*WeekPlan, error)
	Put(ctx context.Context, plan *WeekPlan) (*WeekPlan, error)
	Delete(ctx context.Context, userID, week string) error
}

// Service generates and edits the current week's plan of a user.
type Service struct {
	catalog CatalogStore
	plans   PlanStore
	clock   clock.Clock
	log     *logger.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewService creates a plan service. rnd drives meal selection and must not be shared.
func NewService(cat CatalogStore, plans PlanStore, clk clock.Clock, rnd *rand.Rand, log *logger.Logger) *Service {
	return &Service{
		catalog: cat,
		plans:   plans,
		clock:   clk,
		rnd:     rnd,
		log:     log.With("service", "PlanService"),
	}
}

// CurrentWeek returns the week key operations act on right now.
func (s *Service) CurrentWeek() string {
	return clock.WeekKey(s.clock.Now())
}

// GeneratePlan draws a new plan for the current week and replaces any existing one.
func (s *Service) GeneratePlan(ctx context.Context, u *user.User) (*WeekPlan, error) {
	now := s.clock.Now()
	week := clock.WeekKey(now)

	qualifying, err := s.qualifying(ctx, u)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	days, err := DrawWeek(s.rnd, qualifying)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("meal plan generation rejected", "user_id", u.ID, "qualifying", len(qualifying))
		return nil, err
	}

	plan := &WeekPlan{
		UserID:       u.ID,
		Week:         week,
		Days:         days,
		ShoppingList: Aggregate(days),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stored, err := s.plans.Put(ctx, plan)
	if err != nil {
		return nil, err
	}
	s.log.Info("meal plan generated", "user_id", u.ID, "week", week, "items", len(stored.ShoppingList))
	return stored, nil
}

// GetPlan returns the current week's plan.
func (s *Service) GetPlan(ctx context.Context, u *user.User) (*WeekPlan, error) {
	return s.current(ctx, u)
}

// SwapMeal replaces the meal in one slot with a qualifying meal not yet in the plan.
func (s *Service) SwapMeal(ctx context.Context, u *user.User, dayName, slotName string) (*WeekPlan, error) {
	day, slot, err := parseTarget(dayName, slotName)
	if err != nil {
		return nil, err
	}
	plan, err := s.current(ctx, u)
	if err != nil {
		return nil, err
	}
	qualifying, err := s.qualifying(ctx, u)
	if err != nil {
		return nil, err
	}

	replacement, err := Alternative(qualifying, plan.MealIDs())
	if err != nil {
		return nil, err
	}
	target := plan.Day(day)
	if target == nil {
		return nil, fmt.Errorf("%w: plan has no %s", ErrInvalidSlot, day)
	}
	target.SetMeal(slot, replacement)

	s.log.Debug("meal swapped", "user_id", u.ID, "day", day, "slot", slot, "meal", replacement.Name)
	return s.reaggregate(ctx, plan)
}

// RemoveMeal empties one slot of the current plan.
func (s *Service) RemoveMeal(ctx context.Context, u *user.User, dayName, slotName string) (*WeekPlan, error) {
	day, slot, err := parseTarget(dayName, slotName)
	if err != nil {
		return nil, err
	}
	plan, err := s.current(ctx, u)
	if err != nil {
		return nil, err
	}
	target := plan.Day(day)
	if target == nil {
		return nil, fmt.Errorf("%w: plan has no %s", ErrInvalidSlot, day)
	}
	target.SetMeal(slot, nil)

	s.log.Debug("meal removed", "user_id", u.ID, "day", day, "slot", slot)
	return s.reaggregate(ctx, plan)
}

// AddItem appends a hand-added item to the current plan's shopping list.
func (s *Service) AddItem(ctx context.Context, u *user.User, name, quantity string, store *string, price *float64) (shopping.Item, error) {
	plan, err := s.current(ctx, u)
	if err != nil {
		return shopping.Item{}, err
	}
	item := shopping.NewManualItem(name, quantity, store, price)
	plan.ShoppingList = plan.ShoppingList.Add(item)
	if err := s.save(ctx, plan); err != nil {
		return shopping.Item{}, err
	}
	return item, nil
}

// RemoveItem deletes one item from the current plan's shopping list.
func (s *Service) RemoveItem(ctx context.Context, u *user.User, itemID string) error {
	plan, err := s.current(ctx, u)
	if err != nil {
		return err
	}
	list, ok := plan.ShoppingList.Remove(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	plan.ShoppingList = list
	return s.save(ctx, plan)
}

// SetChecked sets the checked flag of one shopping list item.
func (s *Service) SetChecked(ctx context.Context, u *user.User, itemID string, checked bool) (shopping.Item, error) {
	plan, err := s.current(ctx, u)
	if err != nil {
		return shopping.Item{}, err
	}
	item, ok := plan.ShoppingList.SetChecked(itemID, checked)
	if !ok {
		return shopping.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err := s.save(ctx, plan); err != nil {
		return shopping.Item{}, err
	}
	return item, nil
}

func (s *Service) current(ctx context.Context, u *user.User) (*WeekPlan, error) {
	week := s.CurrentWeek()
	plan, err := s.plans.Get(ctx, u.ID, week)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, week)
	}
	return plan, nil
}

func (s *Service) qualifying(ctx context.Context, u *user.User) ([]catalog.Meal, error) {
	restrictions := u.Profile.DietaryRestrictions
	meals, err := s.catalog.Find(ctx, restrictions)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return catalog.FilterByTags(meals, restrictions), nil
}

// reaggregate rebuilds the meal-derived part of the list; manual items stay at the end.
func (s *Service) reaggregate(ctx context.Context, plan *WeekPlan) (*WeekPlan, error) {
	plan.ShoppingList = plan.ShoppingList.Rebase(Aggregate(plan.Days))
	plan.UpdatedAt = s.clock.Now()
	return s.plans.Put(ctx, plan)
}

func (s *Service) save(ctx context.Context, plan *WeekPlan) error {
	plan.UpdatedAt = s.clock.Now()
	_, err := s.plans.Put(ctx, plan)
	return err
}

func parseTarget(dayName, slotName string) (string, Slot, error) {
	day, err := ParseDay(dayName)
	if err != nil {
		return "", "", err
	}
	slot, err := ParseSlot(slotName)
	if err != nil {
		return "", "", err
	}
	return day, slot, nil
}
