package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
)

func seedUser(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.CreateUser(context.Background(), &model.User{ID: id, Email: id + "@example.com"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func seedIngredient(t *testing.T, s *Store, id, userID, name string) {
	t.Helper()
	if err := s.CreateIngredient(context.Background(), &model.Ingredient{ID: id, UserID: userID, Name: name}); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
}

func TestStore_ListIngredientsOrderAndAssigned(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1")
	seedUser(t, s, "u2")
	seedIngredient(t, s, "i1", "u1", "Apples")
	seedIngredient(t, s, "i2", "u1", "Turkey")
	seedIngredient(t, s, "i3", "u1", "Eggs")
	seedIngredient(t, s, "i4", "u2", "Zucchini")

	for _, r := range []*model.Recipe{
		{ID: "r1", UserID: "u1", Title: "Benedict", IngredientIDs: []string{"i3"}},
		{ID: "r2", UserID: "u1", Title: "Toast", IngredientIDs: []string{"i3", "i3"}},
	} {
		if err := s.CreateRecipe(ctx, r); err != nil {
			t.Fatalf("CreateRecipe: %v", err)
		}
	}

	all, _ := s.ListIngredients(ctx, repository.ListFilter{UserID: "u1"})
	var names []string
	for _, ing := range all {
		names = append(names, ing.Name)
	}
	if len(names) != 3 || names[0] != "Turkey" || names[1] != "Eggs" || names[2] != "Apples" {
		t.Errorf("names = %v, want [Turkey Eggs Apples]", names)
	}

	assigned, _ := s.ListIngredients(ctx, repository.ListFilter{UserID: "u1", AssignedOnly: true})
	if len(assigned) != 1 || assigned[0].ID != "i3" {
		t.Errorf("assigned = %+v, want only Eggs", assigned)
	}
}

func TestStore_RecipeOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1")
	seedUser(t, s, "u2")
	seedIngredient(t, s, "i1", "u2", "Saffron")

	err := s.CreateRecipe(ctx, &model.Recipe{ID: "r1", UserID: "u1", IngredientIDs: []string{"i1"}})
	if !errors.Is(err, repository.ErrUnknownIngredient) {
		t.Fatalf("CreateRecipe err = %v, want ErrUnknownIngredient", err)
	}

	err = s.CreateRecipe(ctx, &model.Recipe{ID: "r2", UserID: "u1", TagIDs: []string{"missing"}})
	if !errors.Is(err, repository.ErrUnknownTag) {
		t.Fatalf("CreateRecipe err = %v, want ErrUnknownTag", err)
	}

	if err := s.CreateRecipe(ctx, &model.Recipe{ID: "r3", UserID: "u1"}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if _, err := s.GetRecipe(ctx, "u2", "r3"); !errors.Is(err, repository.ErrRecipeNotFound) {
		t.Errorf("GetRecipe by other user err = %v", err)
	}
	if err := s.DeleteRecipe(ctx, "u2", "r3"); !errors.Is(err, repository.ErrRecipeNotFound) {
		t.Errorf("DeleteRecipe by other user err = %v", err)
	}
	if err := s.DeleteRecipe(ctx, "u1", "r3"); err != nil {
		t.Errorf("DeleteRecipe: %v", err)
	}
}

func TestStore_APIKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1")

	if err := s.CreateAPIKey(ctx, &model.APIKey{ID: "k1", UserID: "nobody"}); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("CreateAPIKey err = %v, want ErrUserNotFound", err)
	}

	key := &model.APIKey{ID: "k1", UserID: "u1", KeyPrefix: "abc123", CreatedAt: time.Now()}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	keys, _ := s.GetAPIKeysByPrefix(ctx, "abc123")
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}

	if err := s.RevokeAPIKey(ctx, "k1"); err != nil {
		t.Fatalf("RevokeAPIKey: %v", err)
	}
	keys, _ = s.GetAPIKeysByPrefix(ctx, "abc123")
	if len(keys) != 0 {
		t.Errorf("revoked key still returned")
	}
}
