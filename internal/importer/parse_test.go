package importer

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		line, item, quantity string
	}{
		{"2 cups rolled oats, divided", "Rolled oats", "2 cups"},
		{"1/2 cup almond milk", "Almond milk", "1/2 cup"},
		{"200g firm tofu", "Firm tofu", "200g"},
		{"1 1/2 tbsp. olive oil", "Olive oil", "1 1/2 tbsp."},
		{"3 eggs", "Eggs", "3"},
		{"½ lemon (juiced)", "Lemon", "½"},
		{"1 can of chickpeas", "Chickpeas", "1 can"},
		{"Salt to taste", "Salt", DefaultQuantity},
		{"  fresh   basil ", "Fresh basil", DefaultQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if !ok {
				t.Fatalf("Expected %q to parse", tt.line)
			}
			if got.Item != tt.item || got.Quantity != tt.quantity {
				t.Errorf("Expected {%s, %s}, got {%s, %s}", tt.item, tt.quantity, got.Item, got.Quantity)
			}
		})
	}

	if _, ok := ParseLine("   "); ok {
		t.Errorf("Expected blank line to be rejected")
	}
	if _, ok := ParseLine("2 cups"); ok {
		t.Errorf("Expected a line without an item to be rejected")
	}
}
