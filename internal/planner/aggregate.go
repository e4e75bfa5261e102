package planner

import (
	"slices"

	"mealplanr/internal/shopping"
)

// Aggregate derives the shopping list of a set of day plans.
// Days are walked Monday to Sunday and slots breakfast, lunch, dinner; empty slots are skipped.
// Quantities of the same item name are joined in order and items keep first-seen order.
// The result depends only on the meals in days.
func Aggregate(days []DayPlan) []shopping.Item {
	ordered := slices.Clone(days)
	slices.SortStableFunc(ordered, func(a, b DayPlan) int {
		return dayIndex(a.Day) - dayIndex(b.Day)
	})

	b := shopping.NewBuilder()
	for i := range ordered {
		for _, s := range Slots {
			m := ordered[i].Meal(s)
			if m == nil {
				continue
			}
			for _, ing := range m.Ingredients {
				b.Add(ing.Item, ing.Quantity)
			}
		}
	}
	return b.Items()
}
