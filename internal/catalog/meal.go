package catalog

import (
	"slices"

	"github.com/google/uuid"
)

// mealNamespace scopes deterministic meal ids.
var mealNamespace = uuid.MustParse("8f6c1c1e-3d1a-4c52-9a55-5b0f2a3c7e10")

// Ingredient is one line of a meal's ingredient list. Quantity is free-form text.
type Ingredient struct {
	Item     string `json:"item" yaml:"item"`
	Quantity string `json:"quantity" yaml:"quantity"`
}

// Meal is a catalog entry. Meals are immutable once stored.
type Meal struct {
	ID          string       `json:"id" yaml:"id,omitempty"`
	Name        string       `json:"name" yaml:"name"`
	PortionSize string       `json:"portionSize" yaml:"portionSize"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	DietaryTags []string     `json:"dietaryTags" yaml:"dietaryTags"`
}

// MealID derives a stable id from a meal name so reseeding keeps plan references valid.
func MealID(name string) string {
	return uuid.NewSHA1(mealNamespace, []byte(name)).String()
}

// HasTags reports whether the meal carries every one of the required tags.
// An empty requirement matches every meal.
func (m Meal) HasTags(required []string) bool {
	for _, tag := range required {
		if !slices.Contains(m.DietaryTags, tag) {
			return false
		}
	}
	return true
}

// FilterByTags returns the meals whose tags are a superset of required, preserving order.
func FilterByTags(meals []Meal, required []string) []Meal {
	if len(required) == 0 {
		return meals
	}
	out := make([]Meal, 0, len(meals))
	for _, m := range meals {
		if m.HasTags(required) {
			out = append(out, m)
		}
	}
	return out
}

// normalizeTags drops blanks and duplicates and sorts the result.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
