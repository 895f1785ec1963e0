package repository

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"taskflow/internal/recordstore"
	"taskflow/internal/recordstore/recordstoretest"
	"taskflow/internal/store"
)

var fixedNow = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

// stores returns a constructor per store implementation. Each call yields
// a fresh, isolated store.
func stores() map[string]func(t *testing.T) store.Store {
	return map[string]func(t *testing.T) store.Store{
		"memory": func(t *testing.T) store.Store {
			return store.NewMemoryStore()
		},
		"sqlite": func(t *testing.T) store.Store {
			s, err := store.NewSQLiteStore(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"records": func(t *testing.T) store.Store {
			srv := recordstoretest.NewServer(t)
			client, err := recordstore.NewClient(srv.URL, "", 5*time.Second, zerolog.Nop())
			require.NoError(t, err)
			return store.NewRecordStore(client, store.Tables{Task: "task", Category: "category"}, zerolog.Nop())
		},
	}
}

func newTaskRepo(s store.Store) *TaskRepository {
	r := NewTaskRepository(s, zerolog.Nop())
	r.now = func() time.Time { return fixedNow }
	return r
}

func ptr[T any](v T) *T {
	return &v
}
