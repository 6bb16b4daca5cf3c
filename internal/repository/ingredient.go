package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/recipebox/recipebox/internal/model"
)

// CreateIngredient inserts a new ingredient owned by ingredient.UserID.
func (r *Repository) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	_, err := r.pool.Exec(ctx, ingredientTable.insertQuery(),
		ingredient.ID,
		ingredient.UserID,
		ingredient.Name,
		ingredient.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create ingredient: %w", err)
	}
	return nil
}

// ListIngredients returns the user's ingredients ordered by name descending.
func (r *Repository) ListIngredients(ctx context.Context, filter ListFilter) ([]*model.Ingredient, error) {
	rows, err := r.pool.Query(ctx, ingredientTable.listQuery(filter.AssignedOnly), filter.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return collectIngredients(rows)
}

// ListIngredientsByRecipe returns the ingredients a recipe references.
func (r *Repository) ListIngredientsByRecipe(ctx context.Context, recipeID string) ([]*model.Ingredient, error) {
	rows, err := r.pool.Query(ctx, ingredientTable.byRecipeQuery(), recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}
	return collectIngredients(rows)
}

func collectIngredients(rows pgx.Rows) ([]*model.Ingredient, error) {
	defer rows.Close()

	ingredients := make([]*model.Ingredient, 0)
	for rows.Next() {
		var ingredient model.Ingredient
		if err := rows.Scan(&ingredient.ID, &ingredient.UserID, &ingredient.Name, &ingredient.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, &ingredient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return ingredients, nil
}
