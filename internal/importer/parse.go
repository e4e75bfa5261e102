package importer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"mealplanr/internal/catalog"
)

// DefaultQuantity is used for lines that carry no amount, like "Salt to taste".
const DefaultQuantity = "to taste"

var (
	amountRe     = regexp.MustCompile(`^(\d+([.,]\d+)?|\d+/\d+|[½⅓⅔¼¾⅛]|\d+[½⅓⅔¼¾⅛]|\d+-\d+)$`)
	gluedUnitRe  = regexp.MustCompile(`^(\d+([.,]\d+)?)([a-zA-Z]+)$`)
	parenNoteRe  = regexp.MustCompile(`\([^)]*\)`)
	knownUnits   = map[string]bool{}
	unitSpelling = []string{
		"g", "gram", "kg", "kilogram", "mg", "ml", "l", "liter", "litre", "dl", "cl",
		"oz", "ounce", "lb", "pound", "cup", "tbsp", "tablespoon", "tsp", "teaspoon",
		"pinch", "dash", "clove", "slice", "can", "tin", "jar", "bunch", "handful",
		"head", "sprig", "stalk", "piece", "packet", "package", "scoop", "stick",
	}
)

func init() {
	for _, u := range unitSpelling {
		knownUnits[u] = true
		knownUnits[u+"s"] = true
		knownUnits[u+"es"] = true
	}
}

// ParseLine splits an ingredient line into quantity and item, e.g. "2 cups rolled oats, divided"
// becomes {Item: "Rolled oats", Quantity: "2 cups"}. ok is false for blank lines.
func ParseLine(line string) (catalog.Ingredient, bool) {
	line = collapse(parenNoteRe.ReplaceAllString(line, " "))
	if line == "" {
		return catalog.Ingredient{}, false
	}

	words := strings.Fields(line)
	var qty []string
	i := 0
	for i < len(words) && amountRe.MatchString(words[i]) {
		qty = append(qty, words[i])
		i++
	}
	if len(qty) == 0 && i < len(words) {
		if m := gluedUnitRe.FindStringSubmatch(words[i]); m != nil && isUnit(m[3]) {
			qty = append(qty, words[i])
			i++
		}
	} else if len(qty) > 0 && i < len(words) && isUnit(words[i]) {
		qty = append(qty, words[i])
		i++
	}
	if i < len(words) && strings.EqualFold(words[i], "of") && len(qty) > 0 {
		i++
	}

	item := strings.Join(words[i:], " ")
	if cut, _, found := strings.Cut(item, ","); found {
		item = cut
	}
	quantity := strings.Join(qty, " ")
	if strings.HasSuffix(strings.ToLower(item), " to taste") {
		item = strings.TrimSpace(item[:len(item)-len(" to taste")])
	}
	item = strings.TrimSpace(item)
	if item == "" {
		return catalog.Ingredient{}, false
	}
	if quantity == "" {
		quantity = DefaultQuantity
	}
	return catalog.Ingredient{Item: capitalize(item), Quantity: quantity}, true
}

func isUnit(w string) bool {
	return knownUnits[strings.ToLower(strings.TrimSuffix(w, "."))]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
