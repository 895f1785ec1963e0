package filter

import (
	"math"
	"time"

	"taskflow/internal/models"
)

// Titles shown for the all-tasks view and for selectors naming no known
// category.
const (
	AllTasksTitle        = "All Tasks"
	UnknownCategoryTitle = "Unknown Category"
)

// Summary is the progress overview shown next to a task view.
type Summary struct {
	Title     string         `json:"title"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Percent   int            `json:"percent"`
	Overdue   int            `json:"overdue"`
	Active    map[string]int `json:"active"`
}

// Summarize counts tasks for the overview. Active holds the number of
// not-completed tasks per category key, plus the All bucket. Categories
// without active tasks are reported with a zero count. Overdue counts open
// tasks due before now's calendar day.
func Summarize(tasks []models.Task, categories []models.Category, selector string, now time.Time) Summary {
	s := Summary{
		Title:  Title(categories, selector),
		Total:  len(tasks),
		Active: make(map[string]int, len(categories)+1),
	}

	s.Active[All] = 0
	for i := range categories {
		s.Active[categories[i].Key()] = 0
	}

	for _, t := range tasks {
		if t.Completed {
			s.Completed++
			continue
		}
		s.Active[All]++
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if _, ok := s.Active[t.CategoryID]; ok && t.CategoryID != All {
			s.Active[t.CategoryID]++
		}
	}

	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// Title names the view for selector.
func Title(categories []models.Category, selector string) string {
	if !enabled(selector) {
		return AllTasksTitle
	}
	for i := range categories {
		if categories[i].Key() == selector {
			return categories[i].Name
		}
	}
	return UnknownCategoryTitle
}
