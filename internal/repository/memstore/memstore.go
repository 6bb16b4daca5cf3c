// Package memstore is an in-memory stand-in for the PostgreSQL repository.
// It follows the repository's ordering, ownership and error semantics so
// services and handlers can be exercised without a database.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
)

// Store holds users, API keys, ingredients, tags and recipes in memory.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*model.User
	apiKeys     map[string]*model.APIKey
	ingredients map[string]*model.Ingredient
	tags        map[string]*model.Tag
	recipes     map[string]*model.Recipe
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[string]*model.User),
		apiKeys:     make(map[string]*model.APIKey),
		ingredients: make(map[string]*model.Ingredient),
		tags:        make(map[string]*model.Tag),
		recipes:     make(map[string]*model.Recipe),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateUser stores a user. Emails are unique.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

// GetUserByID returns a stored user.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// GetUserByEmail returns the user with the given email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// GetAPIKeyByID returns a stored key, revoked or not.
func (s *Store) GetAPIKeyByID(_ context.Context, id string) (*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.apiKeys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	clone := *k
	return &clone, nil
}

// ListAPIKeysByUserID returns the user's keys newest first.
func (s *Store) ListAPIKeysByUserID(_ context.Context, userID string) ([]*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []*model.APIKey
	for _, k := range s.apiKeys {
		if k.UserID == userID {
			clone := *k
			keys = append(keys, &clone)
		}
	}
	slices.SortFunc(keys, func(a, b *model.APIKey) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return keys, nil
}

// CreateAPIKey stores an API key for an existing user.
func (s *Store) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[key.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	clone := *key
	clone.Scopes = slices.Clone(key.Scopes)
	s.apiKeys[key.ID] = &clone
	return nil
}

// GetAPIKeysByPrefix returns active keys with the given prefix.
func (s *Store) GetAPIKeysByPrefix(_ context.Context, prefix string) ([]*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []*model.APIKey
	for _, k := range s.apiKeys {
		if k.KeyPrefix == prefix && !k.IsRevoked() {
			clone := *k
			keys = append(keys, &clone)
		}
	}
	return keys, nil
}

// UpdateAPIKeyLastUsed stamps last_used_at.
func (s *Store) UpdateAPIKeyLastUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.apiKeys[id]; ok {
		now := time.Now()
		k.LastUsedAt = &now
	}
	return nil
}

// RevokeAPIKey marks an active key revoked.
func (s *Store) RevokeAPIKey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.apiKeys[id]
	if !ok || k.IsRevoked() {
		return repository.ErrAPIKeyNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	return nil
}

// CreateIngredient stores an ingredient for an existing user.
func (s *Store) CreateIngredient(_ context.Context, ingredient *model.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ingredient.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	clone := *ingredient
	s.ingredients[ingredient.ID] = &clone
	return nil
}

// ListIngredients returns the user's ingredients ordered by name descending.
func (s *Store) ListIngredients(_ context.Context, filter repository.ListFilter) ([]*model.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Ingredient, 0)
	for _, ing := range s.ingredients {
		if ing.UserID != filter.UserID {
			continue
		}
		if filter.AssignedOnly && !s.assigned(filter.UserID, ing.ID, func(r *model.Recipe) []string { return r.IngredientIDs }) {
			continue
		}
		clone := *ing
		out = append(out, &clone)
	}
	slices.SortFunc(out, func(a, b *model.Ingredient) int { return byNameDesc(a.Name, a.ID, b.Name, b.ID) })
	return out, nil
}

// CreateTag stores a tag for an existing user.
func (s *Store) CreateTag(_ context.Context, tag *model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[tag.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	clone := *tag
	s.tags[tag.ID] = &clone
	return nil
}

// ListTags returns the user's tags ordered by name descending.
func (s *Store) ListTags(_ context.Context, filter repository.ListFilter) ([]*model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Tag, 0)
	for _, tag := range s.tags {
		if tag.UserID != filter.UserID {
			continue
		}
		if filter.AssignedOnly && !s.assigned(filter.UserID, tag.ID, func(r *model.Recipe) []string { return r.TagIDs }) {
			continue
		}
		clone := *tag
		out = append(out, &clone)
	}
	slices.SortFunc(out, func(a, b *model.Tag) int { return byNameDesc(a.Name, a.ID, b.Name, b.ID) })
	return out, nil
}

// CreateRecipe stores a recipe. Every referenced ingredient and tag must be
// owned by the recipe's user.
func (s *Store) CreateRecipe(_ context.Context, recipe *model.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[recipe.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	stored, err := s.checkedRecipe(recipe)
	if err != nil {
		return err
	}
	s.recipes[recipe.ID] = stored
	return nil
}

// GetRecipe returns one of the user's recipes with ingredients and tags loaded.
func (s *Store) GetRecipe(_ context.Context, userID, id string) (*model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok || r.UserID != userID {
		return nil, repository.ErrRecipeNotFound
	}

	out := cloneRecipe(r)
	out.Ingredients = make([]*model.Ingredient, 0, len(r.IngredientIDs))
	for _, id := range r.IngredientIDs {
		clone := *s.ingredients[id]
		out.Ingredients = append(out.Ingredients, &clone)
	}
	slices.SortFunc(out.Ingredients, func(a, b *model.Ingredient) int { return -byNameDesc(a.Name, a.ID, b.Name, b.ID) })

	out.Tags = make([]*model.Tag, 0, len(r.TagIDs))
	for _, id := range r.TagIDs {
		clone := *s.tags[id]
		out.Tags = append(out.Tags, &clone)
	}
	slices.SortFunc(out.Tags, func(a, b *model.Tag) int { return -byNameDesc(a.Name, a.ID, b.Name, b.ID) })

	return out, nil
}

// ListRecipes returns the user's recipes, newest first.
func (s *Store) ListRecipes(_ context.Context, filter repository.RecipeFilter) ([]*model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Recipe, 0)
	for _, r := range s.recipes {
		if r.UserID != filter.UserID {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !intersects(r.IngredientIDs, filter.IngredientIDs) {
			continue
		}
		if len(filter.TagIDs) > 0 && !intersects(r.TagIDs, filter.TagIDs) {
			continue
		}
		out = append(out, cloneRecipe(r))
	}
	slices.SortFunc(out, func(a, b *model.Recipe) int { return strings.Compare(b.ID, a.ID) })
	return out, nil
}

// UpdateRecipe replaces a stored recipe owned by recipe.UserID.
func (s *Store) UpdateRecipe(_ context.Context, recipe *model.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recipes[recipe.ID]
	if !ok || existing.UserID != recipe.UserID {
		return repository.ErrRecipeNotFound
	}
	stored, err := s.checkedRecipe(recipe)
	if err != nil {
		return err
	}
	stored.CreatedAt = existing.CreatedAt
	s.recipes[recipe.ID] = stored
	return nil
}

// DeleteRecipe removes one of the user's recipes.
func (s *Store) DeleteRecipe(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok || r.UserID != userID {
		return repository.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// checkedRecipe validates references and returns a copy with sorted, distinct id sets.
// Callers hold the write lock.
func (s *Store) checkedRecipe(recipe *model.Recipe) (*model.Recipe, error) {
	stored := cloneRecipe(recipe)
	stored.IngredientIDs = distinct(recipe.IngredientIDs)
	stored.TagIDs = distinct(recipe.TagIDs)
	stored.Ingredients = nil
	stored.Tags = nil

	for _, id := range stored.IngredientIDs {
		if ing, ok := s.ingredients[id]; !ok || ing.UserID != recipe.UserID {
			return nil, repository.ErrUnknownIngredient
		}
	}
	for _, id := range stored.TagIDs {
		if tag, ok := s.tags[id]; !ok || tag.UserID != recipe.UserID {
			return nil, repository.ErrUnknownTag
		}
	}
	return stored, nil
}

func (s *Store) assigned(userID, id string, ids func(*model.Recipe) []string) bool {
	for _, r := range s.recipes {
		if r.UserID == userID && slices.Contains(ids(r), id) {
			return true
		}
	}
	return false
}

func byNameDesc(aName, aID, bName, bID string) int {
	if c := cmp.Compare(bName, aName); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}

func cloneRecipe(r *model.Recipe) *model.Recipe {
	clone := *r
	clone.IngredientIDs = nonNil(slices.Clone(r.IngredientIDs))
	clone.TagIDs = nonNil(slices.Clone(r.TagIDs))
	return &clone
}

func distinct(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return nonNil(slices.Compact(out))
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func intersects(a, b []string) bool {
	for _, id := range a {
		if slices.Contains(b, id) {
			return true
		}
	}
	return false
}
