package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/recordstore"
)

// Record store field names.
const (
	fieldID = "Id"

	taskTitle       = "title_c"
	taskDescription = "description_c"
	taskCategory    = "category_id_c"
	taskPriority    = "priority_c"
	taskDueDate     = "due_date_c"
	taskCompleted   = "completed_c"
	taskCreatedAt   = "created_at_c"
	taskOrder       = "order_c"

	categoryName  = "Name"
	categoryColor = "color_c"
	categoryOrder = "order_c"
)

var (
	taskFields = recordstore.Fields(fieldID, taskTitle, taskDescription, taskCategory,
		taskPriority, taskDueDate, taskCompleted, taskCreatedAt, taskOrder)
	categoryFields = recordstore.Fields(fieldID, categoryName, categoryColor, categoryOrder)
)

// taskFieldNames maps record field labels back to the task's JSON names.
var taskFieldNames = map[string]string{
	taskTitle:       "title",
	taskDescription: "description",
	taskCategory:    "categoryId",
	taskPriority:    "priority",
	taskDueDate:     "dueDate",
	taskCompleted:   "completed",
	taskCreatedAt:   "createdAt",
	taskOrder:       "order",
}

var categoryFieldNames = map[string]string{
	categoryName:  "name",
	categoryColor: "color",
	categoryOrder: "order",
}

func recordToTask(rec recordstore.Record) models.Task {
	t := models.Task{
		ID:          int64Value(rec[fieldID]),
		Title:       stringValue(rec[taskTitle]),
		Description: stringValue(rec[taskDescription]),
		CategoryID:  categoryKey(rec[taskCategory]),
		Priority:    models.DefaultPriority,
		Completed:   boolValue(rec[taskCompleted]),
		Order:       int(int64Value(rec[taskOrder])),
	}
	if p, ok := models.ParsePriority(stringValue(rec[taskPriority])); ok {
		t.Priority = p
	}
	if d, ok := timeValue(rec[taskDueDate]); ok {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		t.DueDate = &day
	}
	if c, ok := timeValue(rec[taskCreatedAt]); ok {
		t.CreatedAt = c
	}
	return t
}

func taskToRecord(t *models.Task) recordstore.Record {
	return recordstore.Record{
		taskTitle:       t.Title,
		taskDescription: t.Description,
		taskCategory:    categoryValue(t.CategoryID),
		taskPriority:    string(t.Priority),
		taskDueDate:     dueDateValue(t.DueDate),
		taskCompleted:   t.Completed,
		taskCreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		taskOrder:       t.Order,
	}
}

// patchToRecord encodes only the fields present in p.
func patchToRecord(id int64, p models.TaskPatch) recordstore.Record {
	rec := recordstore.Record{fieldID: id}
	if p.Title != nil {
		rec[taskTitle] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		rec[taskDescription] = *p.Description
	}
	if p.CategoryID != nil {
		rec[taskCategory] = categoryValue(*p.CategoryID)
	}
	if p.Priority != nil {
		rec[taskPriority] = string(*p.Priority)
	}
	if p.ClearDueDate {
		rec[taskDueDate] = nil
	}
	if p.DueDate != nil {
		rec[taskDueDate] = dueDateValue(p.DueDate)
	}
	if p.Completed != nil {
		rec[taskCompleted] = *p.Completed
	}
	if p.Order != nil {
		rec[taskOrder] = *p.Order
	}
	return rec
}

func recordToCategory(rec recordstore.Record) models.Category {
	c := models.Category{
		ID:    int64Value(rec[fieldID]),
		Name:  stringValue(rec[categoryName]),
		Color: stringValue(rec[categoryColor]),
		Order: int(int64Value(rec[categoryOrder])),
	}
	if c.Color == "" {
		c.Color = models.DefaultColor
	}
	return c
}

func categoryToRecord(c *models.Category) recordstore.Record {
	return recordstore.Record{
		categoryName:  c.Name,
		categoryColor: c.Color,
		categoryOrder: c.Order,
	}
}

func categoryPatchToRecord(id int64, p models.CategoryPatch) recordstore.Record {
	rec := recordstore.Record{fieldID: id}
	if p.Name != nil {
		rec[categoryName] = strings.TrimSpace(*p.Name)
	}
	if p.Color != nil {
		rec[categoryColor] = *p.Color
	}
	if p.Order != nil {
		rec[categoryOrder] = *p.Order
	}
	return rec
}

// categoryKey normalizes a lookup value to the string-coerced category id.
// The store returns either a bare id or an embedded record carrying Id.
func categoryKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case map[string]any:
		return categoryKey(x[fieldID])
	case recordstore.Record:
		return categoryKey(x[fieldID])
	case float64:
		return strconv.FormatInt(int64(x), 10)
	default:
		return strings.TrimSpace(stringValue(x))
	}
}

func categoryValue(categoryID string) any {
	id, err := strconv.ParseInt(categoryID, 10, 64)
	if err != nil {
		return nil
	}
	return id
}

func dueDateValue(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func int64Value(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return int64(f)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n
	default:
		return 0
	}
}

func boolValue(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	case nil:
		return false
	default:
		return int64Value(x) != 0
	}
}

func timeValue(v any) (time.Time, bool) {
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
