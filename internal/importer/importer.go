package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mealplanr/internal/catalog"
	"mealplanr/internal/llm"
	"mealplanr/internal/logger"
)

var (
	// ErrNoRecipe is returned when a page has no recognizable ingredient list.
	ErrNoRecipe = errors.New("no recipe found on page")
	// ErrAlreadyImported is returned when the catalog already holds the meal for a link.
	ErrAlreadyImported = errors.New("recipe already imported")
)

// MealStore receives imported meals.
type MealStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]catalog.Meal, error)
	Insert(ctx context.Context, m *catalog.Meal) error
}

// URLMealID is the catalog id of the meal imported from url.
func URLMealID(url string) string {
	return catalog.MealID("url:" + url)
}

// UsageRecorder stores the token usage of LLM calls.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, operation string, usage llm.TokenUsage, latency time.Duration) error
}

// Importer turns recipe pages into catalog meals.
type Importer struct {
	store      MealStore
	textGen    llm.TextGenerator
	usage      UsageRecorder
	httpClient *http.Client
	log        *logger.Logger
}

// New creates an Importer. textGen may be nil, in which case ingredient lines are split
// heuristically. usage may be nil.
func New(store MealStore, textGen llm.TextGenerator, usage UsageRecorder, log *logger.Logger) *Importer {
	return &Importer{
		store:      store,
		textGen:    textGen,
		usage:      usage,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.With("service", "Importer"),
	}
}

// ImportURL fetches a recipe page, converts it to a meal tagged with tags and stores it.
// A link that was imported before is not fetched again and yields ErrAlreadyImported.
func (im *Importer) ImportURL(ctx context.Context, url string, tags []string) (*catalog.Meal, error) {
	id := URLMealID(url)
	existing, err := im.store.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to look up meal: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s is %q", ErrAlreadyImported, url, existing[0].Name)
	}

	doc, err := im.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	meal, err := im.build(ctx, doc, url)
	if err != nil {
		return nil, err
	}
	meal.ID = id
	if meal.Name == "" {
		meal.Name = url
	}
	meal.DietaryTags = cleanTags(tags)
	if err := im.save(ctx, meal, url); err != nil {
		return nil, err
	}
	return meal, nil
}

// ImportHTML converts an already fetched page body. A non-empty id becomes the meal id
// and a non-empty name replaces whatever name the page carries.
func (im *Importer) ImportHTML(ctx context.Context, id, name, html string, tags []string) (*catalog.Meal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	meal, err := im.build(ctx, doc, name)
	if err != nil {
		return nil, err
	}
	meal.ID = id
	if name != "" {
		meal.Name = name
	}
	if meal.Name == "" {
		return nil, fmt.Errorf("%w: page has no name", ErrNoRecipe)
	}
	meal.DietaryTags = cleanTags(tags)
	if err := im.save(ctx, meal, name); err != nil {
		return nil, err
	}
	return meal, nil
}

func (im *Importer) build(ctx context.Context, doc *goquery.Document, source string) (*catalog.Meal, error) {
	rec := Extract(doc)
	if len(rec.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecipe, source)
	}
	return &catalog.Meal{
		Name:        rec.Name,
		PortionSize: rec.Yield,
		Ingredients: im.parseIngredients(ctx, rec.Ingredients),
	}, nil
}

func (im *Importer) save(ctx context.Context, meal *catalog.Meal, source string) error {
	if err := im.store.Insert(ctx, meal); err != nil {
		return fmt.Errorf("failed to save meal: %w", err)
	}
	im.log.Info("meal imported", "meal_id", meal.ID, "name", meal.Name, "ingredients", len(meal.Ingredients), "source", source)
	return nil
}

func (im *Importer) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// parseIngredients asks the LLM to split lines when one is configured and falls back to ParseLine.
func (im *Importer) parseIngredients(ctx context.Context, lines []string) []catalog.Ingredient {
	if im.textGen != nil {
		ingredients, err := im.parseWithLLM(ctx, lines)
		if err == nil {
			return ingredients
		}
		im.log.Warn("LLM ingredient parsing failed, using heuristic", "error", err)
	}
	out := make([]catalog.Ingredient, 0, len(lines))
	for _, line := range lines {
		if ing, ok := ParseLine(line); ok {
			out = append(out, ing)
		}
	}
	return out
}

func (im *Importer) parseWithLLM(ctx context.Context, lines []string) ([]catalog.Ingredient, error) {
	prompt := fmt.Sprintf(`
You are a recipe parsing expert. Split each ingredient line below into an item name and a quantity.
Return the result strictly as a JSON object with this structure:
{
  "ingredients": [{"item": "Rolled Oats", "quantity": "1/2 cup"}, ...]
}
Use a short, capitalized item name without preparation notes. Keep units in the quantity.

Ingredient lines:
%s
`, "- "+strings.Join(lines, "\n- "))

	start := time.Now()
	resp, err := im.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	im.log.Debug("LLM ingredient parsing", "model", resp.Usage.Model, "total_tokens", resp.Usage.TotalTokens)
	if im.usage != nil {
		if err := im.usage.RecordUsage(ctx, "import", resp.Usage, time.Since(start)); err != nil {
			im.log.Warn("failed to record llm usage", "error", err)
		}
	}

	var parsed struct {
		Ingredients []catalog.Ingredient `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	out := make([]catalog.Ingredient, 0, len(parsed.Ingredients))
	for _, ing := range parsed.Ingredients {
		ing.Item = strings.TrimSpace(ing.Item)
		ing.Quantity = strings.TrimSpace(ing.Quantity)
		if ing.Item == "" {
			continue
		}
		if ing.Quantity == "" {
			ing.Quantity = DefaultQuantity
		}
		out = append(out, ing)
	}
	if len(out) == 0 {
		return nil, errors.New("AI response has no ingredients")
	}
	return out, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
