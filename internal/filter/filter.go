// Package filter narrows a task collection to the subset a view shows.
package filter

import (
	"fmt"
	"strings"

	"taskflow/internal/models"
)

// All is the selector value that disables a filter.
const All = "all"

// Status selects tasks by completion.
type Status string

const (
	StatusAll       Status = All
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Criteria holds the four independent view filters. Empty fields behave
// like All.
type Criteria struct {
	Category string
	Query    string
	Status   Status
	Priority string
}

// ParseCriteria builds Criteria from raw selector values, rejecting
// unknown status and priority values.
func ParseCriteria(category, query, status, priority string) (Criteria, error) {
	c := Criteria{
		Category: strings.TrimSpace(category),
		Query:    query,
		Status:   StatusAll,
		Priority: All,
	}
	if id, ok := models.CanonicalID(c.Category); ok {
		c.Category = id
	}

	switch s := Status(strings.ToLower(strings.TrimSpace(status))); s {
	case "", StatusAll:
	case StatusActive, StatusCompleted:
		c.Status = s
	default:
		return Criteria{}, fmt.Errorf("status %q: %w", status, models.ErrInvalidArgs)
	}

	if p := strings.ToLower(strings.TrimSpace(priority)); p != "" && p != All {
		parsed, ok := models.ParsePriority(p)
		if !ok {
			return Criteria{}, fmt.Errorf("priority %q: %w", priority, models.ErrInvalidArgs)
		}
		c.Priority = string(parsed)
	}

	return c, nil
}

// Apply returns the tasks matching every active filter in c, in input
// order. The input slice is not modified. A blank query is ignored;
// otherwise the query is matched as typed, surrounding spaces included.
func Apply(tasks []models.Task, c Criteria) []models.Task {
	query := ""
	if strings.TrimSpace(c.Query) != "" {
		query = strings.ToLower(c.Query)
	}

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if enabled(c.Category) && t.CategoryID != c.Category {
			continue
		}
		if query != "" && !Matches(t, query) {
			continue
		}
		switch c.Status {
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		case StatusActive:
			if t.Completed {
				continue
			}
		}
		if enabled(c.Priority) && string(t.Priority) != c.Priority {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Matches reports whether the lower-cased title or description of t
// contains query. query must already be lower-cased.
func Matches(t models.Task, query string) bool {
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query)
}

func enabled(selector string) bool {
	return selector != "" && selector != All
}
