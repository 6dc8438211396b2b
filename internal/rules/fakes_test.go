package rules

import (
	"context"
	"time"

	"kakeibo/internal/domain/category"
	"kakeibo/internal/domain/notification"
	"kakeibo/internal/domain/profile"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// mockTransactions is a mock implementation of TransactionSource.
type mockTransactions struct {
	SumExpensesFunc        func(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error)
	ListExpenseAmountsFunc func(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error)
	HasAnyOnDateFunc       func(ctx context.Context, userID string, day time.Time) (bool, error)
}

func (m *mockTransactions) SumExpenses(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error) {
	if m.SumExpensesFunc != nil {
		return m.SumExpensesFunc(ctx, userID, categoryID, from, to)
	}
	return 0, nil
}

func (m *mockTransactions) ListExpenseAmounts(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error) {
	if m.ListExpenseAmountsFunc != nil {
		return m.ListExpenseAmountsFunc(ctx, userID, categoryID, from, to)
	}
	return nil, nil
}

func (m *mockTransactions) HasAnyOnDate(ctx context.Context, userID string, day time.Time) (bool, error) {
	if m.HasAnyOnDateFunc != nil {
		return m.HasAnyOnDateFunc(ctx, userID, day)
	}
	return false, nil
}

// mockCategories implements CategorySource and CategoryGetter.
type mockCategories struct {
	ListWithBudgetFunc func(ctx context.Context) ([]*category.Category, error)
	GetByIDFunc        func(ctx context.Context, id string) (*category.Category, error)
}

func (m *mockCategories) ListWithBudget(ctx context.Context) ([]*category.Category, error) {
	if m.ListWithBudgetFunc != nil {
		return m.ListWithBudgetFunc(ctx)
	}
	return nil, nil
}

func (m *mockCategories) GetByID(ctx context.Context, id string) (*category.Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, category.ErrCategoryNotFound
}

// mockProfiles implements ProfileSource.
type mockProfiles struct {
	ListWithBudgetFunc func(ctx context.Context) ([]*profile.Profile, error)
	ListIDsFunc        func(ctx context.Context) ([]string, error)
}

func (m *mockProfiles) ListWithBudget(ctx context.Context) ([]*profile.Profile, error) {
	if m.ListWithBudgetFunc != nil {
		return m.ListWithBudgetFunc(ctx)
	}
	return nil, nil
}

func (m *mockProfiles) ListIDs(ctx context.Context) ([]string, error) {
	if m.ListIDsFunc != nil {
		return m.ListIDsFunc(ctx)
	}
	return nil, nil
}

// mockPrefs serves the same preferences for every user. A nil prefs field
// simulates a missing preferences row.
type mockPrefs struct {
	prefs *notification.Preferences
	err   error
}

func (m *mockPrefs) GetPreferences(ctx context.Context, userID string) (*notification.Preferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.prefs == nil {
		return nil, notification.ErrPreferencesNotFound
	}
	return m.prefs, nil
}

func allEnabledPrefs() *mockPrefs {
	return &mockPrefs{prefs: notification.DefaultPreferences("user-1")}
}

// recordingSink captures published notifications.
type recordingSink struct {
	published []notification.CreateParams
	err       error
}

func (s *recordingSink) Publish(ctx context.Context, params notification.CreateParams) (*notification.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.published = append(s.published, params)
	return &notification.Notification{
		ID:       "n-1",
		UserID:   params.UserID,
		Type:     params.Type,
		Title:    params.Title,
		Message:  params.Message,
		Metadata: params.Metadata,
	}, nil
}

// mockDup implements DuplicateChecker.
type mockDup struct {
	ExistsFunc func(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error)
}

func (m *mockDup) Exists(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, userID, notifType, matchKey, matchValue, since)
	}
	return false, nil
}

func openGate() *Gate { return NewGate(&mockDup{}) }
