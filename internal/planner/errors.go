package planner

import "errors"

var (
	// ErrInsufficientCatalog indicates fewer qualifying meals than a day needs.
	ErrInsufficientCatalog = errors.New("not enough meals matching dietary restrictions")

	// ErrPlanNotFound indicates the user has no plan for the current week.
	ErrPlanNotFound = errors.New("no meal plan found for the current week")

	// ErrInvalidSlot indicates an unrecognized day or meal slot.
	ErrInvalidSlot = errors.New("invalid day or meal slot")

	// ErrNoAlternative indicates no qualifying meal is left that is not already planned.
	ErrNoAlternative = errors.New("no alternative meal available")

	// ErrItemNotFound indicates the shopping list has no item with the given id.
	ErrItemNotFound = errors.New("shopping list item not found")
)
