package importer

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Recipe is what a page yields before ingredient lines are split.
type Recipe struct {
	Name        string
	Yield       string
	Ingredients []string
}

// Extract reads a recipe from JSON-LD, then schema.org microdata, then common markup.
func Extract(doc *goquery.Document) Recipe {
	if rec, ok := fromJSONLD(doc); ok {
		return rec
	}

	var rec Recipe
	rec.Name = firstText(doc, `[itemtype*="schema.org/Recipe"] [itemprop="name"]`, `[itemprop="name"]`, "h1", "title")
	rec.Yield = firstText(doc, `[itemprop="recipeYield"]`)
	if y, ok := doc.Find(`[itemprop="recipeYield"]`).First().Attr("content"); ok && strings.TrimSpace(y) != "" {
		rec.Yield = strings.TrimSpace(y)
	}

	for _, sel := range []string{`[itemprop="recipeIngredient"]`, `[itemprop="ingredients"]`, ".ingredients li", ".ingredient"} {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if line := collapse(s.Text()); line != "" {
				rec.Ingredients = append(rec.Ingredients, line)
			}
		})
		if len(rec.Ingredients) > 0 {
			break
		}
	}
	if len(rec.Ingredients) == 0 {
		rec.Ingredients = listAfterHeading(doc, "ingredient")
	}
	return rec
}

// listAfterHeading returns the items of the first list following a heading that mentions word.
func listAfterHeading(doc *goquery.Document, word string) []string {
	var lines []string
	doc.Find("h2, h3, h4, p > strong").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(h.Text()), word) {
			return true
		}
		if h.Is("strong") {
			h = h.Parent()
		}
		h.NextAllFiltered("ul, ol").First().Find("li").Each(func(_ int, li *goquery.Selection) {
			if line := collapse(li.Text()); line != "" {
				lines = append(lines, line)
			}
		})
		return len(lines) == 0
	})
	return lines
}

type ldRecipe struct {
	Type             json.RawMessage `json:"@type"`
	Name             string          `json:"name"`
	RecipeYield      json.RawMessage `json:"recipeYield"`
	RecipeIngredient []string        `json:"recipeIngredient"`
	Graph            []ldRecipe      `json:"@graph"`
}

func fromJSONLD(doc *goquery.Document) (Recipe, bool) {
	var found Recipe
	var ok bool
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := []byte(s.Text())
		var nodes []ldRecipe
		if err := json.Unmarshal(raw, &nodes); err != nil {
			var single ldRecipe
			if err := json.Unmarshal(raw, &single); err != nil {
				return true
			}
			nodes = []ldRecipe{single}
		}
		for _, n := range flatten(nodes) {
			if !n.isRecipe() || len(n.RecipeIngredient) == 0 {
				continue
			}
			found = Recipe{Name: collapse(n.Name), Yield: yieldText(n.RecipeYield)}
			for _, line := range n.RecipeIngredient {
				if line = collapse(line); line != "" {
					found.Ingredients = append(found.Ingredients, line)
				}
			}
			ok = len(found.Ingredients) > 0
			return !ok
		}
		return true
	})
	return found, ok
}

func flatten(nodes []ldRecipe) []ldRecipe {
	var out []ldRecipe
	for _, n := range nodes {
		out = append(out, n)
		out = append(out, flatten(n.Graph)...)
	}
	return out
}

func (n ldRecipe) isRecipe() bool {
	var single string
	if json.Unmarshal(n.Type, &single) == nil {
		return single == "Recipe"
	}
	var many []string
	if json.Unmarshal(n.Type, &many) == nil {
		for _, t := range many {
			if t == "Recipe" {
				return true
			}
		}
	}
	return false
}

// yieldText accepts the string, number or list forms of recipeYield.
func yieldText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return collapse(s)
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return yieldText(list[len(list)-1])
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := collapse(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
