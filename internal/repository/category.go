package repository

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"taskflow/internal/models"
	"taskflow/internal/store"
)

// CategoryRepository owns category defaults and ordering.
type CategoryRepository struct {
	store store.Store
	log   zerolog.Logger
}

// NewCategoryRepository creates a repository over s.
func NewCategoryRepository(s store.Store, log zerolog.Logger) *CategoryRepository {
	return &CategoryRepository{
		store: s,
		log:   log.With().Str("component", "categories").Logger(),
	}
}

// GetAll returns every category in display order.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	models.SortCategories(categories)
	return categories, nil
}

// GetByID returns the category with id.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return r.store.GetCategory(ctx, id)
}

// Create validates in and fills the default color. Without an explicit
// order the category is placed last.
func (r *CategoryRepository) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	category := models.Category{
		Name:  strings.TrimSpace(in.Name),
		Color: strings.TrimSpace(in.Color),
	}
	if category.Color == "" {
		category.Color = models.DefaultColor
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if in.Order != nil {
		category.Order = *in.Order
	} else {
		existing, err := r.store.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		category.Order = models.NextCategoryOrder(existing)
	}

	if err := r.store.CreateCategory(ctx, &category); err != nil {
		return nil, err
	}

	r.log.Debug().Int64("id", category.ID).Str("name", category.Name).Msg("category created")
	return &category, nil
}

// Update applies the fields present in patch.
func (r *CategoryRepository) Update(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, errEmptyPatch
	}
	if patch.Color != nil {
		trimmed := strings.TrimSpace(*patch.Color)
		patch.Color = &trimmed
	}

	cur, err := r.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(cur)
	if err := cur.Validate(); err != nil {
		return nil, err
	}

	return r.store.UpdateCategory(ctx, id, patch)
}

// Delete removes the category with id. Tasks filed under it are untouched.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := r.store.DeleteCategory(ctx, id); err != nil {
		return err
	}

	r.log.Debug().Int64("id", id).Msg("category deleted")
	return nil
}

// Reorder gives each listed category the order of its position, starting
// at 1, and returns the whole collection re-sorted.
func (r *CategoryRepository) Reorder(ctx context.Context, ids []int64) ([]models.Category, error) {
	reorderErr := r.store.ReorderCategories(ctx, ids)
	if reorderErr != nil {
		r.log.Warn().Err(reorderErr).Int("count", len(ids)).Msg("category reorder incomplete")
	}

	categories, err := r.GetAll(ctx)
	if err != nil {
		if reorderErr != nil {
			return nil, reorderErr
		}
		return nil, err
	}
	return categories, reorderErr
}
