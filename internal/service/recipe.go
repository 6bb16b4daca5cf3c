package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recipebox/recipebox/internal/metrics"
	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
)

// RecipeStore persists recipes and their ingredient and tag sets.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipe(ctx context.Context, userID, id string) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	DeleteRecipe(ctx context.Context, userID, id string) error
}

// RecipeService handles recipe business logic.
type RecipeService struct {
	store   RecipeStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(store RecipeStore, logger *slog.Logger, recorder metrics.Recorder) *RecipeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeService{store: store, logger: logger, metrics: recorder}
}

// RecipeInput carries recipe fields from a request. Nil fields were absent.
// TimeMinutes and Price are the number text as sent by the client.
type RecipeInput struct {
	Title         *string
	TimeMinutes   *string
	Price         *string
	Link          *string
	IngredientIDs *[]string
	TagIDs        *[]string
}

// ListRecipesInput defines input for listing recipes.
type ListRecipesInput struct {
	UserID        string
	IngredientIDs []string
	TagIDs        []string
}

// Create validates input and stores a new recipe. Title, time and price are required.
func (s *RecipeService) Create(ctx context.Context, userID string, input RecipeInput) (*model.Recipe, error) {
	now := time.Now().UTC()
	recipe := &model.Recipe{
		ID:            newID(),
		UserID:        userID,
		IngredientIDs: []string{},
		TagIDs:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := applyRecipeInput(recipe, input, false); err != nil {
		return nil, err
	}

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, mapRecipeStoreError(err, "create")
	}

	s.metrics.IncRecipeCreated()
	s.logger.Info("recipe_created",
		slog.String("recipe_id", recipe.ID),
		slog.String("user_id", userID),
	)

	return s.Get(ctx, userID, recipe.ID)
}

// Get returns one of the user's recipes with ingredients and tags loaded.
func (s *RecipeService) Get(ctx context.Context, userID, id string) (*model.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// List returns the user's recipes newest first, optionally narrowed to
// recipes referencing any of the given ingredient or tag ids.
func (s *RecipeService) List(ctx context.Context, input ListRecipesInput) ([]*model.Recipe, error) {
	return s.store.ListRecipes(ctx, repository.RecipeFilter{
		UserID:        input.UserID,
		IngredientIDs: input.IngredientIDs,
		TagIDs:        input.TagIDs,
	})
}

// Update applies input to an existing recipe. With partial unset every
// required field must be present. Ingredient and tag sets, when given,
// replace the stored sets.
func (s *RecipeService) Update(ctx context.Context, userID, id string, input RecipeInput, partial bool) (*model.Recipe, error) {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := applyRecipeInput(recipe, input, partial); err != nil {
		return nil, err
	}
	recipe.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		return nil, mapRecipeStoreError(err, "update")
	}

	s.metrics.IncRecipeUpdated()
	s.logger.Info("recipe_updated",
		slog.String("recipe_id", recipe.ID),
		slog.String("user_id", userID),
	)

	return s.Get(ctx, userID, id)
}

// Delete removes one of the user's recipes.
func (s *RecipeService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteRecipe(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.metrics.IncRecipeDeleted()
	s.logger.Info("recipe_deleted",
		slog.String("recipe_id", id),
		slog.String("user_id", userID),
	)
	return nil
}

// applyRecipeInput validates input and copies present fields onto recipe.
// When partial is false, absent required fields are errors.
func applyRecipeInput(recipe *model.Recipe, input RecipeInput, partial bool) error {
	v := &ValidationError{}

	if input.Title != nil || !partial {
		recipe.Title = cleanName(v, "title", input.Title, model.MaxTitleLength)
	}

	switch {
	case input.TimeMinutes != nil:
		minutes, err := strconv.Atoi(strings.TrimSpace(*input.TimeMinutes))
		switch {
		case err != nil:
			v.add("time_minutes", msgInvalidInt)
		case minutes < 1:
			v.add("time_minutes", msgMinPositive)
		case minutes > math.MaxInt32:
			v.add("time_minutes", msgMaxMinutes)
		}
		recipe.TimeMinutes = minutes
	case !partial:
		v.add("time_minutes", msgRequired)
	}

	switch {
	case input.Price != nil:
		price, msg := parsePrice(*input.Price)
		if msg != "" {
			v.add("price", msg)
		}
		recipe.Price = price
	case !partial:
		v.add("price", msgRequired)
	}

	if input.Link != nil {
		link := strings.TrimSpace(*input.Link)
		checkText(v, "link", link, model.MaxLinkLength)
		recipe.Link = link
	}

	if input.IngredientIDs != nil {
		recipe.IngredientIDs = *input.IngredientIDs
	}
	if input.TagIDs != nil {
		recipe.TagIDs = *input.TagIDs
	}

	return v.err()
}

// parsePrice parses a price and checks it fits NUMERIC(5, 2).
// It returns a non-empty message when the value is rejected.
func parsePrice(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, msgInvalidNumber
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, msgInvalidNumber
	}
	if price.IsNegative() {
		return price, msgMinZero
	}

	digits := len(price.Coefficient().String())
	places := 0
	if exp := price.Exponent(); exp < 0 {
		places = int(-exp)
		if places > digits {
			digits = places
		}
	} else {
		digits += int(exp)
	}

	maxWhole := model.PriceMaxDigits - model.PriceDecimalPlaces
	switch {
	case digits > model.PriceMaxDigits:
		return price, fmt.Sprintf("Ensure that there are no more than %d digits in total.", model.PriceMaxDigits)
	case places > model.PriceDecimalPlaces:
		return price, fmt.Sprintf("Ensure that there are no more than %d decimal places.", model.PriceDecimalPlaces)
	case price.GreaterThan(model.MaxPrice):
		return price, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxWhole)
	}
	return price, ""
}

func mapRecipeStoreError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrUnknownIngredient):
		return fieldError("ingredients", "Invalid pk - object does not exist.")
	case errors.Is(err, repository.ErrUnknownTag):
		return fieldError("tags", "Invalid pk - object does not exist.")
	case errors.Is(err, repository.ErrRecipeNotFound):
		return ErrRecipeNotFound
	default:
		return fmt.Errorf("failed to %s recipe: %w", op, err)
	}
}
