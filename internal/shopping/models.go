package shopping

import "github.com/google/uuid"

// itemNamespace scopes deterministic ids of meal-derived items.
var itemNamespace = uuid.MustParse("2d7e4c8a-96b1-4f0e-8d7c-41a2b1f0c6e3")

// Source tells whether an item was derived from the plan's meals or added by hand.
type Source string

const (
	SourceMeal   Source = "meal"
	SourceManual Source = "manual"
)

// Item is one line of a shopping list.
type Item struct {
	ID       string   `json:"id"`
	Item     string   `json:"item"`
	Quantity string   `json:"quantity"`
	Store    *string  `json:"store"`
	Price    *float64 `json:"price"`
	Checked  bool     `json:"checked"`
	Source   Source   `json:"source"`
}

// DerivedID returns the id a meal-derived item with the given name always gets.
func DerivedID(name string) string {
	return uuid.NewSHA1(itemNamespace, []byte(name)).String()
}

// NewManualItem creates an unchecked, hand-added item with a fresh id.
func NewManualItem(name, quantity string, store *string, price *float64) Item {
	return Item{
		ID:       uuid.NewString(),
		Item:     name,
		Quantity: quantity,
		Store:    store,
		Price:    price,
		Source:   SourceManual,
	}
}
