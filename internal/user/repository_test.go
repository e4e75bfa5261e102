package user

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mealplanr/internal/database"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db.SQL)

	u := &User{Email: "  Cook@Example.com ", HashedPassword: "hash", Profile: DefaultProfile()}

	t.Run("Create", func(t *testing.T) {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if u.ID == "" {
			t.Error("Expected Create to assign an id")
		}
		if u.Email != "cook@example.com" {
			t.Errorf("Expected normalized email, got %q", u.Email)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		if err := repo.Create(ctx, &User{Email: "cook@example.com", HashedPassword: "x"}); err == nil {
			t.Fatal("Expected duplicate email to fail")
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "COOK@example.com")
		if err != nil {
			t.Fatalf("GetByEmail failed: %v", err)
		}
		if got.ID != u.ID || got.HashedPassword != "hash" {
			t.Errorf("Unexpected user %+v", got)
		}
		if got.Profile.WeeklyBudget != DefaultWeeklyBudget {
			t.Errorf("Expected default budget, got %d", got.Profile.WeeklyBudget)
		}
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		p := Profile{WeeklyBudget: 80, DietaryRestrictions: []string{"vegan"}, OtherDietaryRestrictions: "no nuts"}
		if err := repo.UpdateProfile(ctx, u.ID, p); err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		got, err := repo.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Profile.WeeklyBudget != 80 || len(got.Profile.DietaryRestrictions) != 1 || got.Profile.OtherDietaryRestrictions != "no nuts" {
			t.Errorf("Unexpected profile %+v", got.Profile)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if err := repo.UpdateProfile(ctx, "missing", DefaultProfile()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
