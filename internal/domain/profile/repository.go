package profile

import "context"

// Repository defines the interface for profile data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)

	// ListWithBudget returns profiles with a positive total budget.
	ListWithBudget(ctx context.Context) ([]*Profile, error)

	// ListIDs returns the IDs of all profiles.
	ListIDs(ctx context.Context) ([]string, error)
}
