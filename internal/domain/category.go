package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExpenseCategory is a reusable label for safe expenses, scoped to one safe.
// Lookup is by normalized name; an expense posting that names an unknown
// category creates it on the fly.
type ExpenseCategory struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ContainerID uuid.UUID `json:"container_id" db:"container_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NormalizeCategoryName is the case-insensitive match key for categories.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
