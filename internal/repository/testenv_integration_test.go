//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/testutil"
)

// ============================================================================
// Test Environment Setup
// ============================================================================

func newRepoTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

func mustCreateUser(t *testing.T, ctx context.Context, repo *Repository) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func mustCreateIngredient(t *testing.T, ctx context.Context, repo *Repository, userID, name string) *model.Ingredient {
	t.Helper()
	ingredient := testutil.NewTestIngredient(t, userID, name)
	if err := repo.CreateIngredient(ctx, ingredient); err != nil {
		t.Fatalf("CreateIngredient(%q) failed: %v", name, err)
	}
	return ingredient
}

func mustCreateTag(t *testing.T, ctx context.Context, repo *Repository, userID, name string) *model.Tag {
	t.Helper()
	tag := testutil.NewTestTag(t, userID, name)
	if err := repo.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag(%q) failed: %v", name, err)
	}
	return tag
}

func mustCreateRecipe(t *testing.T, ctx context.Context, repo *Repository, userID, title string, ingredientIDs ...string) *model.Recipe {
	t.Helper()
	recipe := testutil.NewTestRecipe(t, userID, title)
	recipe.IngredientIDs = ingredientIDs
	if err := repo.CreateRecipe(ctx, recipe); err != nil {
		t.Fatalf("CreateRecipe(%q) failed: %v", title, err)
	}
	return recipe
}
