package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/recipebox/recipebox/internal/model"
)

// CreateTag inserts a new tag owned by tag.UserID.
func (r *Repository) CreateTag(ctx context.Context, tag *model.Tag) error {
	_, err := r.pool.Exec(ctx, tagTable.insertQuery(),
		tag.ID,
		tag.UserID,
		tag.Name,
		tag.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// ListTags returns the user's tags ordered by name descending.
func (r *Repository) ListTags(ctx context.Context, filter ListFilter) ([]*model.Tag, error) {
	rows, err := r.pool.Query(ctx, tagTable.listQuery(filter.AssignedOnly), filter.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return collectTags(rows)
}

// ListTagsByRecipe returns the tags a recipe references.
func (r *Repository) ListTagsByRecipe(ctx context.Context, recipeID string) ([]*model.Tag, error) {
	rows, err := r.pool.Query(ctx, tagTable.byRecipeQuery(), recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe tags: %w", err)
	}
	return collectTags(rows)
}

func collectTags(rows pgx.Rows) ([]*model.Tag, error) {
	defer rows.Close()

	tags := make([]*model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
