package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"taskflow/internal/models"
	"taskflow/internal/store"
)

// TaskRepository owns task defaults and ordering.
type TaskRepository struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewTaskRepository creates a repository over s.
func NewTaskRepository(s store.Store, log zerolog.Logger) *TaskRepository {
	return &TaskRepository{
		store: s,
		log:   log.With().Str("component", "tasks").Logger(),
		now:   time.Now,
	}
}

// GetAll returns every task in display order.
func (r *TaskRepository) GetAll(ctx context.Context) ([]models.Task, error) {
	tasks, err := r.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	models.SortTasks(tasks)
	return tasks, nil
}

// GetByID returns the task with id.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return r.store.GetTask(ctx, id)
}

// GetByCategory returns the tasks filed under categoryID in display order.
func (r *TaskRepository) GetByCategory(ctx context.Context, categoryID string) ([]models.Task, error) {
	categoryID, ok := models.CanonicalID(categoryID)
	if !ok {
		return nil, models.NewFieldError("categoryId", "categoryId must be a positive integer")
	}

	tasks, err := r.store.ListTasksByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	models.SortTasks(tasks)
	return tasks, nil
}

// Create validates in, fills defaults and places the task last.
func (r *TaskRepository) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	task := models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		CategoryID:  canonicalCategory(in.CategoryID),
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   r.now().UTC(),
	}
	if task.Priority == "" {
		task.Priority = models.DefaultPriority
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	task.Order = models.NextTaskOrder(existing)

	if err := r.store.CreateTask(ctx, &task); err != nil {
		return nil, err
	}

	r.log.Debug().Int64("id", task.ID).Int("order", task.Order).Msg("task created")
	return &task, nil
}

// Update applies the fields present in patch.
func (r *TaskRepository) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, errEmptyPatch
	}
	if patch.CategoryID != nil {
		categoryID := canonicalCategory(*patch.CategoryID)
		patch.CategoryID = &categoryID
	}

	cur, err := r.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(cur)
	if err := cur.Validate(); err != nil {
		return nil, err
	}

	return r.store.UpdateTask(ctx, id, patch)
}

// ToggleComplete flips the completed flag of the task with id.
func (r *TaskRepository) ToggleComplete(ctx context.Context, id int64) (*models.Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return r.store.ToggleTaskComplete(ctx, id)
}

// Delete removes the task with id.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := r.store.DeleteTask(ctx, id); err != nil {
		return err
	}

	r.log.Debug().Int64("id", id).Msg("task deleted")
	return nil
}

// Reorder gives each listed task the order of its position, starting at 1,
// and returns the whole collection re-sorted. When some writes fail the
// collection is still returned alongside the error.
func (r *TaskRepository) Reorder(ctx context.Context, ids []int64) ([]models.Task, error) {
	reorderErr := r.store.ReorderTasks(ctx, ids)
	if reorderErr != nil {
		r.log.Warn().Err(reorderErr).Int("count", len(ids)).Msg("task reorder incomplete")
	}

	tasks, err := r.GetAll(ctx)
	if err != nil {
		if reorderErr != nil {
			return nil, reorderErr
		}
		return nil, err
	}
	return tasks, reorderErr
}

// Search returns the tasks whose title or description contains query,
// ignoring case. A blank query matches every task.
func (r *TaskRepository) Search(ctx context.Context, query string) ([]models.Task, error) {
	tasks, err := r.store.SearchTasks(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	models.SortTasks(tasks)
	return tasks, nil
}

// canonicalCategory trims s and rewrites integer ids to plain decimal form.
// Anything else is returned trimmed for Validate to reject.
func canonicalCategory(s string) string {
	s = strings.TrimSpace(s)
	if id, ok := models.CanonicalID(s); ok {
		return id
	}
	return s
}
