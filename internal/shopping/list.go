package shopping

// List is an ordered shopping list.
type List []Item

// Find returns the position of the item with the given id.
func (l List) Find(id string) (int, bool) {
	for i, it := range l {
		if it.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Manual returns the hand-added items in order.
func (l List) Manual() List {
	var out List
	for _, it := range l {
		if it.Source == SourceManual {
			out = append(out, it)
		}
	}
	return out
}

// Rebase replaces every meal-derived item of l with derived and keeps l's manual items after them.
func (l List) Rebase(derived []Item) List {
	out := make(List, 0, len(derived)+len(l))
	out = append(out, derived...)
	return append(out, l.Manual()...)
}

// Add appends an item.
func (l List) Add(it Item) List {
	return append(l, it)
}

// Remove drops the item with the given id. ok is false when no such item exists.
func (l List) Remove(id string) (List, bool) {
	i, ok := l.Find(id)
	if !ok {
		return l, false
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), true
}

// SetChecked sets the checked flag of one item and returns the updated item.
func (l List) SetChecked(id string, checked bool) (Item, bool) {
	i, ok := l.Find(id)
	if !ok {
		return Item{}, false
	}
	l[i].Checked = checked
	return l[i], true
}
