package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"taskflow/internal/filter"
	"taskflow/internal/models"
)

// categoryRef accepts a category id sent either as a JSON string or number.
type categoryRef string

func (c *categoryRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*c = categoryRef(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return models.NewFieldError("categoryId", "categoryId must be a string or number")
	}
	*c = categoryRef(strings.TrimSpace(s))
	return nil
}

// optionalCategory records whether categoryId was present at all, so an
// explicit null clears the category instead of being skipped.
type optionalCategory struct {
	set bool
	ref categoryRef
}

func (o *optionalCategory) UnmarshalJSON(data []byte) error {
	o.set = true
	return o.ref.UnmarshalJSON(data)
}

type createTaskRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CategoryID  categoryRef `json:"categoryId"`
	Priority    string      `json:"priority"`
	DueDate     string      `json:"dueDate"`
}

func (req createTaskRequest) input() (models.TaskInput, error) {
	in := models.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  string(req.CategoryID),
	}
	if strings.TrimSpace(req.Priority) != "" {
		p, err := parsePriority(req.Priority)
		if err != nil {
			return in, err
		}
		in.Priority = p
	}
	if strings.TrimSpace(req.DueDate) != "" {
		d, err := parseDate(req.DueDate)
		if err != nil {
			return in, err
		}
		in.DueDate = d
	}
	return in, nil
}

// updateTaskRequest holds a partial update. An empty dueDate clears it, and
// a null or empty categoryId clears the category.
type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	CategoryID  optionalCategory `json:"categoryId"`
	Priority    *string          `json:"priority"`
	DueDate     *string          `json:"dueDate"`
	Completed   *bool            `json:"completed"`
	Order       *int             `json:"order"`
}

func (req updateTaskRequest) patch() (models.TaskPatch, error) {
	p := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Order:       req.Order,
	}
	if req.CategoryID.set {
		id := string(req.CategoryID.ref)
		p.CategoryID = &id
	}
	if req.Priority != nil {
		priority, err := parsePriority(*req.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &priority
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			p.ClearDueDate = true
		} else {
			d, err := parseDate(*req.DueDate)
			if err != nil {
				return p, err
			}
			p.DueDate = d
		}
	}
	return p, nil
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

func parsePriority(s string) (models.Priority, error) {
	p, ok := models.ParsePriority(s)
	if !ok {
		return "", models.NewFieldError("priority", "priority must be 'high', 'medium', or 'low'")
	}
	return p, nil
}

// ListTasks returns the tasks visible under the category, q, status and
// priority query filters.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := filter.ParseCriteria(q.Get("category"), q.Get("q"), q.Get("status"), q.Get("priority"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tasks, err := h.tasks.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, filter.Apply(tasks, criteria))
}

// SearchTasks returns the tasks whose title or description contains q.
func (h *Handlers) SearchTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// GetTask returns one task.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// CreateTask creates a new task.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask applies a partial update to an existing task.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	patch, err := req.patch()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask toggles the completion status of a task.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.ToggleComplete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// ReorderTasks assigns display order from the posted id sequence and
// returns the re-sorted collection.
func (h *Handlers) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tasks, err := h.tasks.Reorder(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}
