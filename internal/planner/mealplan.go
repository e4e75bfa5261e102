package planner

import (
	"fmt"
	"strings"
	"time"

	"mealplanr/internal/catalog"
	"mealplanr/internal/shopping"
)

// Weekdays is the fixed order of days in a plan.
var Weekdays = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Slot names one of the three meals of a day.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
)

// Slots is the fixed order of meals within a day.
var Slots = [...]Slot{SlotBreakfast, SlotLunch, SlotDinner}

// MealsPerDay is the number of slots each day fills.
const MealsPerDay = len(Slots)

// DayPlan holds the meals of one weekday. A nil slot is empty.
type DayPlan struct {
	Day       string        `json:"day"`
	Breakfast *catalog.Meal `json:"breakfast"`
	Lunch     *catalog.Meal `json:"lunch"`
	Dinner    *catalog.Meal `json:"dinner"`
}

// Meal returns the meal in slot s, or nil.
func (d *DayPlan) Meal(s Slot) *catalog.Meal {
	switch s {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	case SlotDinner:
		return d.Dinner
	}
	return nil
}

// SetMeal puts m into slot s. A nil m empties the slot.
func (d *DayPlan) SetMeal(s Slot, m *catalog.Meal) {
	switch s {
	case SlotBreakfast:
		d.Breakfast = m
	case SlotLunch:
		d.Lunch = m
	case SlotDinner:
		d.Dinner = m
	}
}

// WeekPlan is a user's plan for one ISO week.
type WeekPlan struct {
	ID           int64         `json:"id,omitempty"`
	UserID       string        `json:"userId"`
	Week         string        `json:"week"`
	Days         []DayPlan     `json:"meals"`
	ShoppingList shopping.List `json:"shoppingList"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Day returns the plan of the named weekday, or nil.
func (p *WeekPlan) Day(name string) *DayPlan {
	for i := range p.Days {
		if p.Days[i].Day == name {
			return &p.Days[i]
		}
	}
	return nil
}

// MealIDs returns the ids of every meal occupying a slot.
func (p *WeekPlan) MealIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for i := range p.Days {
		for _, s := range Slots {
			if m := p.Days[i].Meal(s); m != nil {
				ids[m.ID] = struct{}{}
			}
		}
	}
	return ids
}

// ParseDay resolves a weekday name case-insensitively to its canonical form.
func ParseDay(name string) (string, error) {
	for _, d := range Weekdays {
		if strings.EqualFold(strings.TrimSpace(name), d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown day %q", ErrInvalidSlot, name)
}

// ParseSlot resolves a slot name case-insensitively.
func ParseSlot(name string) (Slot, error) {
	for _, s := range Slots {
		if strings.EqualFold(strings.TrimSpace(name), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown meal slot %q", ErrInvalidSlot, name)
}

func dayIndex(name string) int {
	for i, d := range Weekdays {
		if d == name {
			return i
		}
	}
	return len(Weekdays)
}
