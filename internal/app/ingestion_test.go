package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mealplanr/internal/catalog"
	"mealplanr/internal/ghost"
	"mealplanr/internal/importer"
	"mealplanr/internal/logger"
)

type mockSource struct {
	posts []ghost.Post
	err   error
	tag   string
}

func (m *mockSource) FetchRecipes(ctx context.Context, tag string) ([]ghost.Post, error) {
	m.tag = tag
	return m.posts, m.err
}

type mockLookup struct {
	ids map[string]bool
}

func (m mockLookup) GetByIDs(ctx context.Context, ids []string) ([]catalog.Meal, error) {
	var out []catalog.Meal
	for _, id := range ids {
		if m.ids[id] {
			out = append(out, catalog.Meal{ID: id})
		}
	}
	return out, nil
}

type mockImporter struct {
	imported []string
}

func (m *mockImporter) ImportHTML(ctx context.Context, id, name, html string, tags []string) (*catalog.Meal, error) {
	switch html {
	case "no-recipe":
		return nil, fmt.Errorf("%w: %s", importer.ErrNoRecipe, name)
	case "broken":
		return nil, errors.New("insert failed")
	}
	m.imported = append(m.imported, id)
	return &catalog.Meal{ID: id, Name: name}, nil
}

func TestIngestRecipes(t *testing.T) {
	ctx := context.Background()
	posts := []ghost.Post{
		{ID: "p1", Title: "Soup", HTML: "ok"},
		{ID: "p2", Title: "Known", HTML: "ok"},
		{ID: "p3", Title: "Essay", HTML: "no-recipe"},
		{ID: "p4", Title: "Broken", HTML: "broken"},
	}

	t.Run("Success", func(t *testing.T) {
		src := &mockSource{posts: posts}
		im := &mockImporter{}
		lookup := mockLookup{ids: map[string]bool{PostMealID(posts[1]): true}}

		res, err := IngestRecipes(ctx, src, lookup, im, "recipes", nil, logger.NewNop())
		if err != nil {
			t.Fatalf("IngestRecipes failed: %v", err)
		}
		want := IngestResult{Imported: 1, Existing: 1, Skipped: 1, Failed: 1}
		if res != want {
			t.Errorf("Expected %+v, got %+v", want, res)
		}
		if src.tag != "recipes" {
			t.Errorf("Expected tag filter to be passed, got %q", src.tag)
		}
		if len(im.imported) != 1 || im.imported[0] != PostMealID(posts[0]) {
			t.Errorf("Expected post p1 imported under its stable id, got %v", im.imported)
		}
	})

	t.Run("FetchError", func(t *testing.T) {
		src := &mockSource{err: errors.New("ghost down")}
		_, err := IngestRecipes(ctx, src, mockLookup{}, &mockImporter{}, "", nil, logger.NewNop())
		if err == nil {
			t.Fatal("Expected error when posts cannot be fetched")
		}
	})
}

func TestPostMealIDIsStable(t *testing.T) {
	a := PostMealID(ghost.Post{ID: "p1", Title: "One"})
	b := PostMealID(ghost.Post{ID: "p1", Title: "Renamed"})
	if a != b {
		t.Errorf("Expected id to depend only on the post id, got %s and %s", a, b)
	}
}
