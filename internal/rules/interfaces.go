package rules

import (
	"context"
	"time"

	"kakeibo/internal/domain/category"
	"kakeibo/internal/domain/notification"
	"kakeibo/internal/domain/profile"
)

// The evaluators depend on narrow consumer-side interfaces so they can be
// wired to the postgres repositories in production and to in-memory fakes
// in tests.

// CategorySource lists categories eligible for budget checks.
type CategorySource interface {
	ListWithBudget(ctx context.Context) ([]*category.Category, error)
}

// CategoryGetter resolves a single category.
type CategoryGetter interface {
	GetByID(ctx context.Context, id string) (*category.Category, error)
}

// ProfileSource reads profiles for the sweeping evaluators.
type ProfileSource interface {
	ListWithBudget(ctx context.Context) ([]*profile.Profile, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// TransactionSource aggregates transactions over bounded date ranges.
type TransactionSource interface {
	SumExpenses(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error)
	ListExpenseAmounts(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error)
	HasAnyOnDate(ctx context.Context, userID string, day time.Time) (bool, error)
}

// PreferenceSource loads a user's notification preferences. A missing row
// must surface notification.ErrPreferencesNotFound; evaluators treat it as
// "nothing to do" for that user.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, userID string) (*notification.Preferences, error)
}

// Sink appends one notification record (and delivers it downstream).
type Sink interface {
	Publish(ctx context.Context, params notification.CreateParams) (*notification.Notification, error)
}

// DuplicateChecker is the existence check backing the dedup gate.
type DuplicateChecker interface {
	Exists(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error)
}
