package category

import "context"

// Repository defines the interface for category data access.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Category, error)

	// ListWithBudget returns every category with a positive monthly budget,
	// across all users.
	ListWithBudget(ctx context.Context) ([]*Category, error)

	ListByUserID(ctx context.Context, userID string) ([]*Category, error)
}
