package handlers

import (
	"net/http"
	"time"

	"taskflow/internal/filter"
)

// Overview returns progress counts and the view title for the category
// query selector.
func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := h.tasks.GetAll(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	categories, err := h.categories.GetAll(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, filter.Summarize(tasks, categories, r.URL.Query().Get("category"), time.Now()))
}
