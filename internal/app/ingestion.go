package app

import (
	"context"
	"errors"
	"fmt"

	"mealplanr/internal/catalog"
	"mealplanr/internal/ghost"
	"mealplanr/internal/importer"
	"mealplanr/internal/logger"
)

// PostSource lists recipe posts from a blog.
type PostSource interface {
	FetchRecipes(ctx context.Context, tag string) ([]ghost.Post, error)
}

// HTMLImporter turns a post body into a stored meal.
type HTMLImporter interface {
	ImportHTML(ctx context.Context, id, name, html string, tags []string) (*catalog.Meal, error)
}

// MealLookup reports which meals are already in the catalog.
type MealLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]catalog.Meal, error)
}

// IngestResult counts what happened to each post.
type IngestResult struct {
	Imported int
	Existing int
	Skipped  int
	Failed   int
}

// PostMealID is the catalog id a blog post is imported under, so reruns find it again.
func PostMealID(post ghost.Post) string {
	return catalog.MealID("ghost:" + post.ID)
}

// IngestRecipes imports every post carrying filterTag that is not yet in the catalog.
// Posts without a recognizable ingredient list are skipped; other per-post failures are
// logged and counted without stopping the run.
func IngestRecipes(ctx context.Context, src PostSource, meals MealLookup, im HTMLImporter, filterTag string, tags []string, log *logger.Logger) (IngestResult, error) {
	var res IngestResult

	posts, err := src.FetchRecipes(ctx, filterTag)
	if err != nil {
		return res, fmt.Errorf("failed to fetch posts: %w", err)
	}
	log.Info("posts fetched", "count", len(posts), "tag", filterTag)

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = PostMealID(p)
	}
	existing, err := meals.GetByIDs(ctx, ids)
	if err != nil {
		return res, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		known[m.ID] = struct{}{}
	}

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, ok := known[ids[i]]; ok {
			res.Existing++
			continue
		}

		_, err := im.ImportHTML(ctx, ids[i], post.Title, post.HTML, tags)
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, importer.ErrNoRecipe):
			log.Warn("post has no ingredient list", "post_id", post.ID, "title", post.Title)
			res.Skipped++
		default:
			log.Error("failed to import post", "post_id", post.ID, "title", post.Title, "error", err)
			res.Failed++
		}
	}

	log.Info("ingestion finished", "imported", res.Imported, "existing", res.Existing, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
