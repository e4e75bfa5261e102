package catalog

import "testing"

func TestHasTags(t *testing.T) {
	m := Meal{Name: "Lentil Soup", DietaryTags: []string{"vegetarian", "vegan", "gluten-free"}}

	tests := []struct {
		name     string
		required []string
		want     bool
	}{
		{"no requirement", nil, true},
		{"single tag", []string{"vegan"}, true},
		{"subset", []string{"gluten-free", "vegetarian"}, true},
		{"missing tag", []string{"vegan", "keto"}, false},
		{"case sensitive", []string{"Vegan"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.HasTags(tt.required); got != tt.want {
				t.Errorf("HasTags(%v) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}
}

func TestFilterByTags(t *testing.T) {
	meals := []Meal{
		{Name: "A", DietaryTags: []string{"vegan"}},
		{Name: "B", DietaryTags: []string{}},
		{Name: "C", DietaryTags: []string{"vegan", "gluten-free"}},
	}

	got := FilterByTags(meals, []string{"vegan"})
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("Unexpected filter result %+v", got)
	}
	if all := FilterByTags(meals, nil); len(all) != 3 {
		t.Errorf("Expected no filtering without restrictions, got %d", len(all))
	}
}

func TestMealIDIsStable(t *testing.T) {
	if MealID("Pancakes") != MealID("Pancakes") {
		t.Error("Expected MealID to be deterministic")
	}
	if MealID("Pancakes") == MealID("Waffles") {
		t.Error("Expected different names to produce different ids")
	}
}

func TestLoadSeed(t *testing.T) {
	meals, err := LoadSeed()
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if len(meals) != 15 {
		t.Fatalf("Expected 15 seed meals, got %d", len(meals))
	}
	seen := make(map[string]bool)
	for _, m := range meals {
		if m.ID != MealID(m.Name) {
			t.Errorf("Meal %s has unexpected id %s", m.Name, m.ID)
		}
		if seen[m.ID] {
			t.Errorf("Duplicate id for %s", m.Name)
		}
		seen[m.ID] = true
		if len(m.Ingredients) == 0 {
			t.Errorf("Meal %s has no ingredients", m.Name)
		}
	}
	if vegan := FilterByTags(meals, []string{"vegan"}); len(vegan) != 6 {
		t.Errorf("Expected 6 vegan seed meals, got %d", len(vegan))
	}
}

func TestParseMealsRejectsNameless(t *testing.T) {
	if _, err := ParseMeals([]byte("- portionSize: 1 bowl\n")); err == nil {
		t.Fatal("Expected an error for a meal without a name")
	}
}
