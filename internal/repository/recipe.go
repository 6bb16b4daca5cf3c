package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/recipebox/recipebox/internal/model"
)

// Common errors for recipe repository operations.
var (
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrUnknownIngredient = errors.New("ingredient does not exist or belongs to another user")
	ErrUnknownTag        = errors.New("tag does not exist or belongs to another user")
)

// RecipeFilter narrows a recipe listing. A recipe matches an id list when it
// references at least one of the ids; empty lists do not filter.
type RecipeFilter struct {
	UserID        string
	IngredientIDs []string
	TagIDs        []string
}

const recipeColumns = `
	r.id, r.user_id, r.title, r.time_minutes, r.price::text, r.link, r.created_at, r.updated_at,
	ARRAY(SELECT ri.ingredient_id FROM recipe_ingredients ri WHERE ri.recipe_id = r.id ORDER BY ri.ingredient_id),
	ARRAY(SELECT rt.tag_id FROM recipe_tags rt WHERE rt.recipe_id = r.id ORDER BY rt.tag_id)`

// CreateRecipe inserts a recipe and its ingredient and tag references in one transaction.
func (r *Repository) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO recipes (id, user_id, title, time_minutes, price, link, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		`

		_, err := tx.Exec(ctx, query,
			recipe.ID,
			recipe.UserID,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.StringFixed(model.PriceDecimalPlaces),
			recipe.Link,
			recipe.CreatedAt,
			recipe.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		return replaceRecipeLinks(ctx, tx, recipe)
	})
}

// GetRecipe returns one of the user's recipes with its ingredients and tags loaded.
func (r *Repository) GetRecipe(ctx context.Context, userID, id string) (*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`

	recipe, err := scanRecipe(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if recipe.Ingredients, err = r.ListIngredientsByRecipe(ctx, recipe.ID); err != nil {
		return nil, err
	}
	if recipe.Tags, err = r.ListTagsByRecipe(ctx, recipe.ID); err != nil {
		return nil, err
	}

	return recipe, nil
}

// ListRecipes returns the user's recipes, newest first.
func (r *Repository) ListRecipes(ctx context.Context, filter RecipeFilter) ([]*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = $1`
	args := []any{filter.UserID}
	argIndex := 2

	if len(filter.IngredientIDs) > 0 {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($%d))`, argIndex)
		args = append(args, pq.Array(filter.IngredientIDs))
		argIndex++
	}

	if len(filter.TagIDs) > 0 {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($%d))`, argIndex)
		args = append(args, pq.Array(filter.TagIDs))
	}

	query += ` ORDER BY r.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]*model.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	return recipes, nil
}

// UpdateRecipe rewrites a recipe's fields and replaces its ingredient and tag sets.
func (r *Repository) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE recipes
			SET title = $3, time_minutes = $4, price = $5::numeric, link = $6, updated_at = $7
			WHERE id = $1 AND user_id = $2
		`

		result, err := tx.Exec(ctx, query,
			recipe.ID,
			recipe.UserID,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.StringFixed(model.PriceDecimalPlaces),
			recipe.Link,
			recipe.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrRecipeNotFound
		}

		return replaceRecipeLinks(ctx, tx, recipe)
	})
}

// DeleteRecipe removes one of the user's recipes. Join rows cascade.
func (r *Repository) DeleteRecipe(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

func replaceRecipeLinks(ctx context.Context, tx pgx.Tx, recipe *model.Recipe) error {
	if err := replaceLinks(ctx, tx, ingredientTable, recipe, recipe.IngredientIDs, ErrUnknownIngredient); err != nil {
		return err
	}
	return replaceLinks(ctx, tx, tagTable, recipe, recipe.TagIDs, ErrUnknownTag)
}

func replaceLinks(ctx context.Context, tx pgx.Tx, t namedTable, recipe *model.Recipe, ids []string, errUnknown error) error {
	if _, err := tx.Exec(ctx, t.unlinkQuery(), recipe.ID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.joinTable, err)
	}

	ids = distinct(ids)
	if len(ids) == 0 {
		return nil
	}

	result, err := tx.Exec(ctx, t.linkQuery(), recipe.ID, recipe.UserID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to link %s: %w", t.joinTable, err)
	}
	if result.RowsAffected() != int64(len(ids)) {
		return errUnknown
	}
	return nil
}

func scanRecipe(row pgx.Row) (*model.Recipe, error) {
	var recipe model.Recipe
	var price string
	var ingredientIDs, tagIDs []string

	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.TimeMinutes,
		&price,
		&recipe.Link,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
		pq.Array(&ingredientIDs),
		pq.Array(&tagIDs),
	)
	if err != nil {
		return nil, err
	}

	recipe.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	recipe.IngredientIDs = nonNil(ingredientIDs)
	recipe.TagIDs = nonNil(tagIDs)

	return &recipe, nil
}

// distinct returns the ids sorted with duplicates removed.
func distinct(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
