package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed/meals.yaml
var seedYAML []byte

// LoadSeed parses the embedded default catalog and assigns deterministic ids.
func LoadSeed() ([]Meal, error) {
	return ParseMeals(seedYAML)
}

// ParseMeals decodes a YAML list of meals. Meals without an id get MealID(name).
func ParseMeals(data []byte) ([]Meal, error) {
	var meals []Meal
	if err := yaml.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("failed to parse meal catalog: %w", err)
	}
	for i := range meals {
		if meals[i].Name == "" {
			return nil, fmt.Errorf("meal %d has no name", i)
		}
		if meals[i].ID == "" {
			meals[i].ID = MealID(meals[i].Name)
		}
		if meals[i].DietaryTags == nil {
			meals[i].DietaryTags = []string{}
		}
	}
	return meals, nil
}
