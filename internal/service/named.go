package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipebox/recipebox/internal/metrics"
	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository"
)

// IngredientStore persists ingredients.
type IngredientStore interface {
	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	ListIngredients(ctx context.Context, filter repository.ListFilter) ([]*model.Ingredient, error)
}

// TagStore persists tags.
type TagStore interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	ListTags(ctx context.Context, filter repository.ListFilter) ([]*model.Tag, error)
}

// ListInput defines input for listing ingredients or tags.
type ListInput struct {
	UserID       string
	AssignedOnly bool
}

// CreateNamedInput defines input for creating an ingredient or tag.
// A nil Name means the field was absent from the request.
type CreateNamedInput struct {
	UserID string
	Name   *string
}

// IngredientService handles ingredient business logic.
type IngredientService struct {
	store   IngredientStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewIngredientService creates a new IngredientService.
func NewIngredientService(store IngredientStore, logger *slog.Logger, recorder metrics.Recorder) *IngredientService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngredientService{store: store, logger: logger, metrics: recorder}
}

// List returns the user's ingredients ordered by name descending.
func (s *IngredientService) List(ctx context.Context, input ListInput) ([]*model.Ingredient, error) {
	return s.store.ListIngredients(ctx, repository.ListFilter{
		UserID:       input.UserID,
		AssignedOnly: input.AssignedOnly,
	})
}

// Create validates the name and stores a new ingredient for the user.
func (s *IngredientService) Create(ctx context.Context, input CreateNamedInput) (*model.Ingredient, error) {
	v := &ValidationError{}
	name := cleanName(v, "name", input.Name, model.MaxNameLength)
	if err := v.err(); err != nil {
		return nil, err
	}

	ingredient := &model.Ingredient{
		ID:        newID(),
		UserID:    input.UserID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateIngredient(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}

	s.metrics.IncIngredientCreated()
	s.logger.Info("ingredient_created",
		slog.String("ingredient_id", ingredient.ID),
		slog.String("user_id", ingredient.UserID),
	)

	return ingredient, nil
}

// TagService handles tag business logic.
type TagService struct {
	store   TagStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewTagService creates a new TagService.
func NewTagService(store TagStore, logger *slog.Logger, recorder metrics.Recorder) *TagService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TagService{store: store, logger: logger, metrics: recorder}
}

// List returns the user's tags ordered by name descending.
func (s *TagService) List(ctx context.Context, input ListInput) ([]*model.Tag, error) {
	return s.store.ListTags(ctx, repository.ListFilter{
		UserID:       input.UserID,
		AssignedOnly: input.AssignedOnly,
	})
}

// Create validates the name and stores a new tag for the user.
func (s *TagService) Create(ctx context.Context, input CreateNamedInput) (*model.Tag, error) {
	v := &ValidationError{}
	name := cleanName(v, "name", input.Name, model.MaxNameLength)
	if err := v.err(); err != nil {
		return nil, err
	}

	tag := &model.Tag{
		ID:        newID(),
		UserID:    input.UserID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.metrics.IncTagCreated()
	s.logger.Info("tag_created",
		slog.String("tag_id", tag.ID),
		slog.String("user_id", tag.UserID),
	)

	return tag, nil
}
