package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/filter"
	"taskflow/internal/models"
	"taskflow/internal/store"
)

func TestTaskRepository(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Run("create then get round trips", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
				created, err := repo.Create(ctx, models.TaskInput{
					Title:       "  Buy milk ",
					Description: "2 liters",
					CategoryID:  "2",
					Priority:    models.PriorityLow,
					DueDate:     &due,
				})
				require.NoError(t, err)
				assert.NotZero(t, created.ID)

				got, err := repo.GetByID(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, "Buy milk", got.Title)
				assert.Equal(t, "2 liters", got.Description)
				assert.Equal(t, "2", got.CategoryID)
				assert.Equal(t, models.PriorityLow, got.Priority)
				require.NotNil(t, got.DueDate)
				assert.True(t, got.DueDate.Equal(due))
				assert.False(t, got.Completed)
				assert.True(t, got.CreatedAt.Equal(fixedNow))
				assert.Equal(t, 1, got.Order)
			})

			t.Run("create fills defaults and appends", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				first, err := repo.Create(ctx, models.TaskInput{Title: "first"})
				require.NoError(t, err)
				second, err := repo.Create(ctx, models.TaskInput{Title: "second"})
				require.NoError(t, err)

				assert.Equal(t, models.PriorityMedium, first.Priority)
				assert.Equal(t, "", first.Description)
				assert.Equal(t, 1, first.Order)
				assert.Equal(t, 2, second.Order)
			})

			t.Run("create rejects invalid input", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				tests := []struct {
					name  string
					in    models.TaskInput
					field string
				}{
					{"blank title", models.TaskInput{Title: "   "}, "title"},
					{"bad priority", models.TaskInput{Title: "x", Priority: "urgent"}, "priority"},
					{"bad category", models.TaskInput{Title: "x", CategoryID: "all"}, "categoryId"},
				}
				for _, tt := range tests {
					t.Run(tt.name, func(t *testing.T) {
						_, err := repo.Create(ctx, tt.in)
						require.ErrorIs(t, err, models.ErrInvalidArgs)

						var fe *models.FieldError
						require.True(t, errors.As(err, &fe))
						assert.Equal(t, tt.field, fe.Field)
					})
				}

				all, err := repo.GetAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, all)
			})

			t.Run("update merges present fields", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
				task, err := repo.Create(ctx, models.TaskInput{Title: "Draft", Description: "keep", DueDate: &due})
				require.NoError(t, err)

				got, err := repo.Update(ctx, task.ID, models.TaskPatch{
					Title:        ptr("Final"),
					Priority:     ptr(models.PriorityHigh),
					ClearDueDate: true,
				})
				require.NoError(t, err)
				assert.Equal(t, "Final", got.Title)
				assert.Equal(t, models.PriorityHigh, got.Priority)
				assert.Equal(t, "keep", got.Description)
				assert.Nil(t, got.DueDate)
			})

			t.Run("update errors", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				task, err := repo.Create(ctx, models.TaskInput{Title: "Keep"})
				require.NoError(t, err)

				_, err = repo.Update(ctx, task.ID, models.TaskPatch{})
				assert.ErrorIs(t, err, models.ErrInvalidArgs)

				_, err = repo.Update(ctx, task.ID, models.TaskPatch{Title: ptr("  ")})
				assert.ErrorIs(t, err, models.ErrInvalidArgs)

				_, err = repo.Update(ctx, 999, models.TaskPatch{Title: ptr("x")})
				assert.ErrorIs(t, err, models.ErrNotFound)

				got, err := repo.GetByID(ctx, task.ID)
				require.NoError(t, err)
				assert.Equal(t, "Keep", got.Title)
			})

			t.Run("toggle twice restores", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				task, err := repo.Create(ctx, models.TaskInput{Title: "Flip"})
				require.NoError(t, err)

				once, err := repo.ToggleComplete(ctx, task.ID)
				require.NoError(t, err)
				assert.True(t, once.Completed)

				twice, err := repo.ToggleComplete(ctx, task.ID)
				require.NoError(t, err)
				assert.Equal(t, task.Completed, twice.Completed)

				_, err = repo.ToggleComplete(ctx, 999)
				assert.ErrorIs(t, err, models.ErrNotFound)
			})

			t.Run("delete nonexistent fails", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				assert.ErrorIs(t, repo.Delete(ctx, 999), models.ErrNotFound)

				task, err := repo.Create(ctx, models.TaskInput{Title: "Gone"})
				require.NoError(t, err)
				require.NoError(t, repo.Delete(ctx, task.ID))
				assert.ErrorIs(t, repo.Delete(ctx, task.ID), models.ErrNotFound)
			})

			t.Run("reorder", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				var created []*models.Task
				for _, title := range []string{"one", "two", "three", "four"} {
					task, err := repo.Create(ctx, models.TaskInput{Title: title})
					require.NoError(t, err)
					created = append(created, task)
				}
				one, two, three, four := created[0], created[1], created[2], created[3]

				got, err := repo.Reorder(ctx, []int64{three.ID, one.ID, two.ID})
				require.NoError(t, err)
				require.Len(t, got, 4)

				var order []int64
				for _, task := range got {
					order = append(order, task.ID)
				}
				assert.Equal(t, []int64{three.ID, one.ID, two.ID, four.ID}, order)

				reloaded, err := repo.GetByID(ctx, four.ID)
				require.NoError(t, err)
				assert.Equal(t, four.Order, reloaded.Order)
			})

			t.Run("by category and search", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				milk, err := repo.Create(ctx, models.TaskInput{Title: "Buy milk", CategoryID: "2", Priority: models.PriorityLow})
				require.NoError(t, err)
				bills, err := repo.Create(ctx, models.TaskInput{Title: "Pay bills", CategoryID: "3", Priority: models.PriorityHigh})
				require.NoError(t, err)

				found, err := repo.Search(ctx, "milk")
				require.NoError(t, err)
				require.Len(t, found, 1)
				assert.Equal(t, milk.ID, found[0].ID)

				found, err = repo.Search(ctx, "  ")
				require.NoError(t, err)
				assert.Len(t, found, 2)

				byCategory, err := repo.GetByCategory(ctx, "3")
				require.NoError(t, err)
				require.Len(t, byCategory, 1)
				assert.Equal(t, bills.ID, byCategory[0].ID)

				_, err = repo.GetByCategory(ctx, "all")
				assert.ErrorIs(t, err, models.ErrInvalidArgs)
			})

			t.Run("category ids are stored in canonical form", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				created, err := repo.Create(ctx, models.TaskInput{Title: "Padded", CategoryID: "02"})
				require.NoError(t, err)
				assert.Equal(t, "2", created.CategoryID)

				got, err := repo.GetByID(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, "2", got.CategoryID)

				byCategory, err := repo.GetByCategory(ctx, "+2")
				require.NoError(t, err)
				require.Len(t, byCategory, 1)
				assert.Equal(t, created.ID, byCategory[0].ID)

				all, err := repo.GetAll(ctx)
				require.NoError(t, err)
				assert.Len(t, filter.Apply(all, filter.Criteria{Category: "2"}), 1)

				updated, err := repo.Update(ctx, created.ID, models.TaskPatch{CategoryID: ptr("007")})
				require.NoError(t, err)
				assert.Equal(t, "7", updated.CategoryID)
			})

			t.Run("search folds non-ASCII case", func(t *testing.T) {
				repo := newTaskRepo(open(t))
				ctx := context.Background()

				apples, err := repo.Create(ctx, models.TaskInput{Title: "Über Äpfel kaufen"})
				require.NoError(t, err)
				_, err = repo.Create(ctx, models.TaskInput{Title: "Pay bills"})
				require.NoError(t, err)

				found, err := repo.Search(ctx, "über äpfel")
				require.NoError(t, err)
				require.Len(t, found, 1)
				assert.Equal(t, apples.ID, found[0].ID)

				found, err = repo.Search(ctx, "ÄPFEL")
				require.NoError(t, err)
				require.Len(t, found, 1)
			})
		})
	}
}

func TestTaskRepository_RejectsNonPositiveID(t *testing.T) {
	repo := newTaskRepo(store.NewMemoryStore())
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgs)
	assert.ErrorIs(t, repo.Delete(ctx, -1), models.ErrInvalidArgs)
}

// flakyStore fails every reorder after applying it.
type flakyStore struct {
	*store.MemoryStore
	err error
}

func (s *flakyStore) ReorderTasks(ctx context.Context, ids []int64) error {
	if err := s.MemoryStore.ReorderTasks(ctx, ids); err != nil {
		return err
	}
	return s.err
}

func TestTaskRepository_ReorderReturnsCollectionWithError(t *testing.T) {
	failure := models.NewFieldError("order", "locked")
	s := &flakyStore{MemoryStore: store.NewMemoryStore(), err: failure}
	repo := NewTaskRepository(s, zerolog.Nop())
	ctx := context.Background()

	a, err := repo.Create(ctx, models.TaskInput{Title: "a"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, models.TaskInput{Title: "b"})
	require.NoError(t, err)

	got, err := repo.Reorder(ctx, []int64{b.ID, a.ID})
	assert.ErrorIs(t, err, models.ErrInvalidArgs)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
}
