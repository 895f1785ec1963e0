package store

import (
	"context"

	"taskflow/internal/models"
)

// Store defines the interface for data persistence operations.
// Lists are returned ordered by order, then id. Lookups, updates, toggles
// and deletes of a missing id fail with models.ErrNotFound.
type Store interface {
	// Category operations
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ReorderCategories(ctx context.Context, ids []int64) error

	// Task operations
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListTasksByCategory(ctx context.Context, categoryID string) ([]models.Task, error)
	SearchTasks(ctx context.Context, query string) ([]models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ToggleTaskComplete(ctx context.Context, id int64) (*models.Task, error)
	// ReorderTasks sets order to position+1 for every listed id that
	// exists. Unknown ids are skipped; unlisted tasks keep their order.
	ReorderTasks(ctx context.Context, ids []int64) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
