package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"taskflow/internal/models"
	"taskflow/internal/repository"
	"taskflow/internal/store"
)

func TestRouter_Routes(t *testing.T) {
	s := store.NewMemoryStore()
	h := New(repository.NewTaskRepository(s, zerolog.Nop()), repository.NewCategoryRepository(s, zerolog.Nop()), s, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(h, time.Second))
	t.Cleanup(srv.Close)

	steps := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/api/ping", "", http.StatusOK},
		{"POST", "/api/categories", `{"name": "Work"}`, http.StatusCreated},
		{"POST", "/api/tasks", `{"title": "Buy milk", "categoryId": "1"}`, http.StatusCreated},
		{"POST", "/api/tasks", `{"title": "Pay bills"}`, http.StatusCreated},
		{"GET", "/api/tasks", "", http.StatusOK},
		{"GET", "/api/tasks/search?q=milk", "", http.StatusOK},
		{"GET", "/api/tasks/1", "", http.StatusOK},
		{"PATCH", "/api/tasks/1", `{"priority": "high"}`, http.StatusOK},
		{"POST", "/api/tasks/1/toggle", "", http.StatusOK},
		{"POST", "/api/tasks/reorder", `{"ids": [2, 1]}`, http.StatusOK},
		{"GET", "/api/categories", "", http.StatusOK},
		{"GET", "/api/categories/1", "", http.StatusOK},
		{"PATCH", "/api/categories/1", `{"name": "Office"}`, http.StatusOK},
		{"GET", "/api/categories/1/tasks", "", http.StatusOK},
		{"POST", "/api/categories/reorder", `{"ids": [1]}`, http.StatusOK},
		{"GET", "/api/overview?category=1", "", http.StatusOK},
		{"DELETE", "/api/tasks/2", "", http.StatusNoContent},
		{"DELETE", "/api/tasks/2", "", http.StatusNotFound},
		{"DELETE", "/api/categories/1", "", http.StatusNoContent},
		{"GET", "/api/tasks/99", "", http.StatusNotFound},
	}

	for _, step := range steps {
		req, err := http.NewRequest(step.method, srv.URL+step.path, strings.NewReader(step.body))
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("%s %s failed: %v", step.method, step.path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != step.want {
			t.Errorf("%s %s: expected status %d, got %d", step.method, step.path, step.want, resp.StatusCode)
		}
	}
}

func TestRouter_TasksListIsFiltered(t *testing.T) {
	s := store.NewMemoryStore()
	tasks := repository.NewTaskRepository(s, zerolog.Nop())
	h := New(tasks, repository.NewCategoryRepository(s, zerolog.Nop()), s, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(h, 0))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	tasks.Create(ctx, models.TaskInput{Title: "Buy milk", CategoryID: "2", Priority: models.PriorityLow})
	tasks.Create(ctx, models.TaskInput{Title: "Pay bills", CategoryID: "3", Priority: models.PriorityHigh})

	resp, err := srv.Client().Get(srv.URL + "/api/tasks?category=3&priority=high")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var got []models.Task
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Pay bills" {
		t.Errorf("expected only Pay bills, got %+v", got)
	}
}
