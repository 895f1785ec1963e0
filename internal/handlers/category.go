package handlers

import (
	"net/http"
	"strconv"

	"taskflow/internal/models"
)

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Order *int   `json:"order"`
}

type updateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Order *int    `json:"order"`
}

// ListCategories returns all categories in display order.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// GetCategory returns one category.
func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	category, err := h.categories.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// CreateCategory creates a new category.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	category, err := h.categories.Create(r.Context(), models.CategoryInput{
		Name:  req.Name,
		Color: req.Color,
		Order: req.Order,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory applies a partial update to an existing category.
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	category, err := h.categories.Update(r.Context(), id, models.CategoryPatch{
		Name:  req.Name,
		Color: req.Color,
		Order: req.Order,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory deletes a category. Its tasks are kept.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderCategories assigns display order from the posted id sequence.
func (h *Handlers) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	categories, err := h.categories.Reorder(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// ListCategoryTasks returns the tasks filed under one category.
func (h *Handlers) ListCategoryTasks(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tasks, err := h.tasks.GetByCategory(r.Context(), strconv.FormatInt(id, 10))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}
