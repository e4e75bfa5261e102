package shopping

// QuantitySeparator joins quantities of the same item.
const QuantitySeparator = " + "

// Builder accumulates ingredient lines into a shopping list keyed by exact item name.
// Items keep the order in which their name was first seen.
type Builder struct {
	items []Item
	index map[string]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Add records quantity of the named item. Repeated names append to the quantity text.
func (b *Builder) Add(name, quantity string) {
	if i, ok := b.index[name]; ok {
		b.items[i].Quantity += QuantitySeparator + quantity
		return
	}
	b.index[name] = len(b.items)
	b.items = append(b.items, Item{
		ID:       DerivedID(name),
		Item:     name,
		Quantity: quantity,
		Source:   SourceMeal,
	})
}

// Items returns the accumulated list. The result is never nil.
func (b *Builder) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}
