package planner

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"mealplanr/internal/catalog"
)

// DrawWeek fills every slot of the seven days from qualifying meals.
// Each day gets MealsPerDay distinct meals drawn uniformly without replacement;
// days are drawn independently, so a meal may repeat across days.
func DrawWeek(rnd *rand.Rand, qualifying []catalog.Meal) ([]DayPlan, error) {
	if len(qualifying) < MealsPerDay {
		return nil, fmt.Errorf("%w: %d qualifying meals, need %d", ErrInsufficientCatalog, len(qualifying), MealsPerDay)
	}

	days := make([]DayPlan, 0, len(Weekdays))
	for _, name := range Weekdays {
		picks := rnd.Perm(len(qualifying))[:MealsPerDay]
		day := DayPlan{Day: name}
		for i, s := range Slots {
			day.SetMeal(s, snapshot(qualifying[picks[i]]))
		}
		days = append(days, day)
	}
	return days, nil
}

// Alternative picks the replacement for a slot: the qualifying meal with the lowest id
// that does not occupy any slot of the plan.
func Alternative(qualifying []catalog.Meal, used map[string]struct{}) (*catalog.Meal, error) {
	var best *catalog.Meal
	for i := range qualifying {
		m := &qualifying[i]
		if _, taken := used[m.ID]; taken {
			continue
		}
		if best == nil || strings.Compare(m.ID, best.ID) < 0 {
			best = m
		}
	}
	if best == nil {
		return nil, ErrNoAlternative
	}
	return snapshot(*best), nil
}

// snapshot copies a meal so a plan never shares slices with the catalog.
func snapshot(m catalog.Meal) *catalog.Meal {
	m.Ingredients = slices.Clone(m.Ingredients)
	m.DietaryTags = slices.Clone(m.DietaryTags)
	return &m
}
