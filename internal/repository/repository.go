// Package repository mediates task and category operations against a
// store.Store. It validates input, applies defaults and keeps collections in
// display order.
package repository

import (
	"fmt"

	"taskflow/internal/models"
)

var errEmptyPatch = fmt.Errorf("%w: nothing to update", models.ErrInvalidArgs)

func validID(id int64) error {
	if id <= 0 {
		return models.NewFieldError("id", "id must be a positive integer")
	}
	return nil
}
