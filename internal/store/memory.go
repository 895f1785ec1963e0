package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskflow/internal/filter"
	"taskflow/internal/models"
)

// MemoryStore keeps categories and tasks in process memory. Each instance
// is isolated; ids are never reused within an instance.
type MemoryStore struct {
	mu      sync.RWMutex
	latency time.Duration

	nextCategoryID int64
	nextTaskID     int64

	categories map[int64]models.Category
	tasks      map[int64]models.Task
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithLatency delays every operation by d, simulating a remote round trip.
func WithLatency(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.latency = d }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		nextCategoryID: 1,
		nextTaskID:     1,
		categories:     make(map[int64]models.Category),
		tasks:          make(map[int64]models.Task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneTask(t models.Task) models.Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}

// Ping always succeeds unless ctx is done.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateCategory stores a copy of category and assigns its ID.
func (s *MemoryStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	category.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories[category.ID] = *category
	return nil
}

// GetCategory returns the category with id.
func (s *MemoryStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, models.NotFound("category", id)
	}
	return &c, nil
}

// ListCategories returns all categories ordered by order.
func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	models.SortCategories(out)
	return out, nil
}

// UpdateCategory applies patch to the category with id.
func (s *MemoryStore) UpdateCategory(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, models.NotFound("category", id)
	}
	patch.Apply(&c)
	s.categories[id] = c
	return &c, nil
}

// DeleteCategory removes the category with id. Its tasks are kept.
func (s *MemoryStore) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return models.NotFound("category", id)
	}
	delete(s.categories, id)
	return nil
}

// ReorderCategories assigns order by position in ids.
func (s *MemoryStore) ReorderCategories(ctx context.Context, ids []int64) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range ids {
		if c, ok := s.categories[id]; ok {
			c.Order = i + 1
			s.categories[id] = c
		}
	}
	return nil
}

// CreateTask stores a copy of task and assigns its ID.
func (s *MemoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextTaskID
	s.nextTaskID++
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

// GetTask returns the task with id.
func (s *MemoryStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, models.NotFound("task", id)
	}
	t = cloneTask(t)
	return &t, nil
}

// ListTasks returns all tasks ordered by order.
func (s *MemoryStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.selectTasks(ctx, func(models.Task) bool { return true })
}

// ListTasksByCategory returns the tasks whose category id equals categoryID.
func (s *MemoryStore) ListTasksByCategory(ctx context.Context, categoryID string) ([]models.Task, error) {
	return s.selectTasks(ctx, func(t models.Task) bool { return t.CategoryID == categoryID })
}

// SearchTasks returns the tasks whose title or description contains query,
// ignoring case.
func (s *MemoryStore) SearchTasks(ctx context.Context, query string) ([]models.Task, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.selectTasks(ctx, func(t models.Task) bool { return q == "" || filter.Matches(t, q) })
}

func (s *MemoryStore) selectTasks(ctx context.Context, keep func(models.Task) bool) ([]models.Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	models.SortTasks(out)
	return out, nil
}

// UpdateTask applies patch to the task with id.
func (s *MemoryStore) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, models.NotFound("task", id)
	}
	patch.Apply(&t)
	s.tasks[id] = cloneTask(t)
	return &t, nil
}

// DeleteTask removes the task with id.
func (s *MemoryStore) DeleteTask(ctx context.Context, id int64) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return models.NotFound("task", id)
	}
	delete(s.tasks, id)
	return nil
}

// ToggleTaskComplete flips the completed flag of the task with id.
func (s *MemoryStore) ToggleTaskComplete(ctx context.Context, id int64) (*models.Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, models.NotFound("task", id)
	}
	t.Completed = !t.Completed
	s.tasks[id] = t
	t = cloneTask(t)
	return &t, nil
}

// ReorderTasks assigns order by position in ids.
func (s *MemoryStore) ReorderTasks(ctx context.Context, ids []int64) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range ids {
		if t, ok := s.tasks[id]; ok {
			t.Order = i + 1
			s.tasks[id] = t
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
