package models

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultColor is assigned to categories created without a color.
const DefaultColor = "#5B4FE5"

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Category groups tasks in the sidebar.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

// Validate checks that the category has valid field values.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewFieldError("name", "name is required")
	}

	if !hexColor.MatchString(c.Color) {
		return NewFieldError("color", "color must be a hex color like #5B4FE5")
	}

	return nil
}

// Key returns the string-coerced id that tasks use to reference c.
func (c *Category) Key() string {
	return strconv.FormatInt(c.ID, 10)
}

// CategoryInput carries the caller-supplied fields of a new category.
// A nil Order places the category after the existing ones.
type CategoryInput struct {
	Name  string
	Color string
	Order *int
}

// CategoryPatch lists the fields to change on an existing category.
type CategoryPatch struct {
	Name  *string
	Color *string
	Order *int
}

// Empty reports whether the patch changes nothing.
func (p CategoryPatch) Empty() bool {
	return p.Name == nil && p.Color == nil && p.Order == nil
}

// Apply copies the present fields of p onto c.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
}

// IsID reports whether s is a positive base-10 integer.
func IsID(s string) bool {
	_, ok := CanonicalID(s)
	return ok
}

// CanonicalID returns the plain decimal form of a positive integer id, so
// "02" and "+2" both become "2".
func CanonicalID(s string) (string, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}
