package models

import "sort"

// SortTasks orders tasks by Order, breaking ties by ID.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// SortCategories orders categories by Order, breaking ties by ID.
func SortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Order != categories[j].Order {
			return categories[i].Order < categories[j].Order
		}
		return categories[i].ID < categories[j].ID
	})
}

// NextTaskOrder returns one past the highest Order in tasks, or 1.
func NextTaskOrder(tasks []Task) int {
	next := 1
	for _, t := range tasks {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// NextCategoryOrder returns one past the highest Order in categories, or 1.
func NextCategoryOrder(categories []Category) int {
	next := 1
	for _, c := range categories {
		if c.Order >= next {
			next = c.Order + 1
		}
	}
	return next
}
