package dto

import (
	"net/url"

	"github.com/recipebox/recipebox/internal/model"
)

// NamedRequest is the create body for ingredients and tags.
// A nil Name means the field was absent.
type NamedRequest struct {
	Name *string `json:"name"`
}

// NamedResponse represents an ingredient or tag in API responses.
type NamedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NamedRequestFromForm reads a NamedRequest from form values.
func NamedRequestFromForm(values url.Values) NamedRequest {
	return NamedRequest{Name: formValue(values, "name")}
}

// ToIngredientResponse converts an Ingredient model to its DTO.
func ToIngredientResponse(ingredient *model.Ingredient) NamedResponse {
	return NamedResponse{ID: ingredient.ID, Name: ingredient.Name}
}

// ToIngredientListResponse converts ingredients to DTOs. The result is never nil.
func ToIngredientListResponse(ingredients []*model.Ingredient) []NamedResponse {
	out := make([]NamedResponse, len(ingredients))
	for i, ingredient := range ingredients {
		out[i] = ToIngredientResponse(ingredient)
	}
	return out
}

// ToTagResponse converts a Tag model to its DTO.
func ToTagResponse(tag *model.Tag) NamedResponse {
	return NamedResponse{ID: tag.ID, Name: tag.Name}
}

// ToTagListResponse converts tags to DTOs. The result is never nil.
func ToTagListResponse(tags []*model.Tag) []NamedResponse {
	out := make([]NamedResponse, len(tags))
	for i, tag := range tags {
		out[i] = ToTagResponse(tag)
	}
	return out
}

// RecipeRequest is the create and update body for recipes. Nil fields were
// absent; Ingredients and Tags replace the stored sets when present.
type RecipeRequest struct {
	Title       *string     `json:"title"`
	TimeMinutes *NumberText `json:"time_minutes"`
	Price       *NumberText `json:"price"`
	Link        *string     `json:"link"`
	Ingredients *[]string   `json:"ingredients"`
	Tags        *[]string   `json:"tags"`
}

// RecipeRequestFromForm reads a RecipeRequest from form values.
// Ingredients and tags are repeated keys.
func RecipeRequestFromForm(values url.Values) RecipeRequest {
	req := RecipeRequest{
		Title: formValue(values, "title"),
		Link:  formValue(values, "link"),
	}
	if v := formValue(values, "time_minutes"); v != nil {
		n := NumberText(*v)
		req.TimeMinutes = &n
	}
	if v := formValue(values, "price"); v != nil {
		n := NumberText(*v)
		req.Price = &n
	}
	if ids, ok := values["ingredients"]; ok {
		req.Ingredients = &ids
	}
	if ids, ok := values["tags"]; ok {
		req.Tags = &ids
	}
	return req
}

// RecipeResponse represents a recipe in list responses.
type RecipeResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	TimeMinutes int      `json:"time_minutes"`
	Price       string   `json:"price"`
	Link        string   `json:"link"`
	Ingredients []string `json:"ingredients"`
	Tags        []string `json:"tags"`
}

// RecipeDetailResponse represents a single recipe with nested ingredients and tags.
type RecipeDetailResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        string          `json:"link"`
	Ingredients []NamedResponse `json:"ingredients"`
	Tags        []NamedResponse `json:"tags"`
}

// ToRecipeResponse converts a Recipe model to its list DTO.
func ToRecipeResponse(recipe *model.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price.StringFixed(model.PriceDecimalPlaces),
		Link:        recipe.Link,
		Ingredients: nonNil(recipe.IngredientIDs),
		Tags:        nonNil(recipe.TagIDs),
	}
}

// ToRecipeListResponse converts recipes to list DTOs. The result is never nil.
func ToRecipeListResponse(recipes []*model.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		out[i] = ToRecipeResponse(recipe)
	}
	return out
}

// ToRecipeDetailResponse converts a fully loaded Recipe model to its detail DTO.
func ToRecipeDetailResponse(recipe *model.Recipe) RecipeDetailResponse {
	return RecipeDetailResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price.StringFixed(model.PriceDecimalPlaces),
		Link:        recipe.Link,
		Ingredients: ToIngredientListResponse(recipe.Ingredients),
		Tags:        ToTagListResponse(recipe.Tags),
	}
}

func formValue(values url.Values, key string) *string {
	if _, ok := values[key]; !ok {
		return nil
	}
	v := values.Get(key)
	return &v
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
