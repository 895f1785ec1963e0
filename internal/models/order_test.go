package models

import "testing"

func TestSortTasks_ByOrderThenID(t *testing.T) {
	tasks := []Task{
		{ID: 3, Order: 2},
		{ID: 1, Order: 2},
		{ID: 2, Order: 1},
	}

	SortTasks(tasks)

	want := []int64{2, 1, 3}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, tasks[i].ID)
		}
	}
}

func TestNextTaskOrder(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  int
	}{
		{"empty", nil, 1},
		{"max plus one", []Task{{Order: 3}, {Order: 7}, {Order: 1}}, 8},
		{"zero orders", []Task{{Order: 0}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextTaskOrder(tt.tasks); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNextCategoryOrder(t *testing.T) {
	if got := NextCategoryOrder([]Category{{Order: 4}, {Order: 2}}); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}
