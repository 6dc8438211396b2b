package category

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrCategoryNotFound = errors.New("category not found")
)

// Category represents a spending category owned by one user.
// A MonthlyBudget of zero means the category has no spending limit.
type Category struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	Name          string    `json:"name"`
	MonthlyBudget float64   `json:"monthly_budget"`
	Color         string    `json:"color"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasBudget reports whether the category has a spending limit configured.
func (c *Category) HasBudget() bool {
	return c.MonthlyBudget > 0
}
