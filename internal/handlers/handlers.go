package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
	pinger     Pinger
	log        zerolog.Logger
}

// New creates a new Handlers instance.
func New(tasks *repository.TaskRepository, categories *repository.CategoryRepository, pinger Pinger, log zerolog.Logger) *Handlers {
	return &Handlers{
		tasks:      tasks,
		categories: categories,
		pinger:     pinger,
		log:        log.With().Str("component", "http").Logger(),
	}
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []*models.FieldError `json:"fields,omitempty"`
}

// parseID extracts and parses an integer ID from URL parameters.
func parseID(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewFieldError(param, "must be a positive integer")
	}
	return id, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(s string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil, models.NewFieldError("dueDate", "dueDate must be a date like 2024-01-31")
	}
	return &t, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %v: %w", err, models.ErrInvalidArgs)
	}
	return nil
}

// respondJSON writes data as a JSON response.
func respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

// writeError maps err to a status code and writes it.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgs):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Fields: fieldErrors(err)})
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUnavailable):
		h.log.Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("store unavailable")
		respondError(w, http.StatusServiceUnavailable, "record store unavailable")
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("internal server error")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// fieldErrors collects every *models.FieldError carried by err.
func fieldErrors(err error) []*models.FieldError {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*models.FieldError
		for _, e := range merr.Errors {
			var fe *models.FieldError
			if errors.As(e, &fe) {
				out = append(out, fe)
			}
		}
		return out
	}

	var fe *models.FieldError
	if errors.As(err, &fe) {
		return []*models.FieldError{fe}
	}
	return nil
}

// Ping reports store health.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("ping failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"store": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"store": "ok"})
}
