package profile

import (
	"errors"
	"time"
)

// Budget periods
const (
	PeriodMonthly = "monthly"
	PeriodWeekly  = "weekly"
)

// Domain errors
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile represents a user profile with its overall budget settings.
// TotalBudget of zero means no overall budget is configured; BudgetPeriod
// is only meaningful when TotalBudget is positive.
type Profile struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	TotalBudget  float64   `json:"total_budget"`
	BudgetPeriod string    `json:"budget_period"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasBudget reports whether the profile has an overall budget configured.
func (p *Profile) HasBudget() bool {
	return p.TotalBudget > 0
}
