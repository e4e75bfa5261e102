package shopping

import "testing"

func TestBuilder(t *testing.T) {
	t.Run("FirstSeenOrder", func(t *testing.T) {
		b := NewBuilder()
		b.Add("eggs", "2")
		b.Add("milk", "1 cup")
		b.Add("eggs", "3")
		b.Add("bread", "2 slices")

		items := b.Items()
		if len(items) != 3 {
			t.Fatalf("Expected 3 items, got %d", len(items))
		}
		want := []struct{ item, qty string }{
			{"eggs", "2 + 3"},
			{"milk", "1 cup"},
			{"bread", "2 slices"},
		}
		for i, w := range want {
			if items[i].Item != w.item || items[i].Quantity != w.qty {
				t.Errorf("Item %d: expected %s=%q, got %s=%q", i, w.item, w.qty, items[i].Item, items[i].Quantity)
			}
			if items[i].Checked {
				t.Errorf("Item %d should start unchecked", i)
			}
			if items[i].Source != SourceMeal {
				t.Errorf("Item %d should be meal-derived, got %s", i, items[i].Source)
			}
		}
	})

	t.Run("CaseSensitiveKeys", func(t *testing.T) {
		b := NewBuilder()
		b.Add("Egg", "1")
		b.Add("egg", "1")
		if n := len(b.Items()); n != 2 {
			t.Errorf("Expected names differing in case to stay separate, got %d items", n)
		}
	})

	t.Run("DeterministicIDs", func(t *testing.T) {
		a, b := NewBuilder(), NewBuilder()
		a.Add("Tofu", "1 block")
		b.Add("Tofu", "2 blocks")
		if a.Items()[0].ID != b.Items()[0].ID {
			t.Error("Expected the same item name to produce the same id")
		}
		if a.Items()[0].ID != DerivedID("Tofu") {
			t.Error("Expected id to match DerivedID")
		}
	})

	t.Run("EmptyIsNotNil", func(t *testing.T) {
		if items := NewBuilder().Items(); items == nil || len(items) != 0 {
			t.Errorf("Expected empty non-nil slice, got %#v", items)
		}
	})
}
