package transaction

import (
	"context"
	"time"
)

// Repository defines the interface for transaction data access.
// Sum and list operations are always taken over a bounded date range.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)

	// SumExpenses returns the total expense amount for a user between from
	// and to (inclusive). A nil categoryID sums across all categories.
	SumExpenses(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error)

	// ListExpenseAmounts returns the amounts of a user's expenses in one
	// category between from and to (inclusive), newest first.
	ListExpenseAmounts(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error)

	// HasAnyOnDate reports whether the user recorded any transaction on the
	// given day.
	HasAnyOnDate(ctx context.Context, userID string, day time.Time) (bool, error)
}
