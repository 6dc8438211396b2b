package rules

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kakeibo/internal/domain/category"
	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/messages"
)

func newBudgetThreshold(cats *mockCategories, txs *mockTransactions, prefs PreferenceSource, gate *Gate, sink *recordingSink, now time.Time) *BudgetThreshold {
	return NewBudgetThreshold(cats, txs, prefs, gate, sink, fixedClock{now}, DefaultPolicy(), messages.Default())
}

func singleCategory(budget float64) *mockCategories {
	return &mockCategories{
		ListWithBudgetFunc: func(ctx context.Context) ([]*category.Category, error) {
			return []*category.Category{{ID: "cat-1", UserID: "user-1", Name: "Groceries", MonthlyBudget: budget}}, nil
		},
	}
}

func spendMock(amount float64) *mockTransactions {
	return &mockTransactions{
		SumExpensesFunc: func(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error) {
			return amount, nil
		},
	}
}

func TestBudgetThreshold_Crossings(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		budget   float64
		spent    float64
		wantType string
	}{
		{name: "Critical at exactly 100 percent", budget: 500, spent: 500, wantType: notification.TypeBudgetCritical},
		{name: "Critical above budget", budget: 500, spent: 620, wantType: notification.TypeBudgetCritical},
		{name: "Warning at exactly 80 percent", budget: 500, spent: 400, wantType: notification.TypeBudgetWarning},
		{name: "Warning at 99 percent", budget: 500, spent: 495, wantType: notification.TypeBudgetWarning},
		{name: "No notification under 80 percent", budget: 500, spent: 399, wantType: ""},
		{name: "No notification at zero spend", budget: 500, spent: 0, wantType: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			e := newBudgetThreshold(singleCategory(tt.budget), spendMock(tt.spent), allEnabledPrefs(), openGate(), sink, now)

			summary, err := e.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() failed: %v", err)
			}

			if tt.wantType == "" {
				if summary.Sent != 0 {
					t.Fatalf("Run() sent %d notifications, want 0", summary.Sent)
				}
				return
			}

			if summary.Sent != 1 {
				t.Fatalf("Run() sent %d notifications, want 1", summary.Sent)
			}
			got := sink.published[0]
			if got.Type != tt.wantType {
				t.Errorf("notification type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Metadata["category"] != "Groceries" {
				t.Errorf("metadata category = %v, want Groceries", got.Metadata["category"])
			}
		})
	}
}

func TestBudgetThreshold_WarningMessageIncludesPercentage(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	// 437 of 500 = 87.4% which rounds to 87.
	e := newBudgetThreshold(singleCategory(500), spendMock(437), allEnabledPrefs(), openGate(), sink, now)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(sink.published) != 1 {
		t.Fatalf("published %d notifications, want 1", len(sink.published))
	}
	if msg := sink.published[0].Message; !strings.Contains(msg, "87%") {
		t.Errorf("message %q does not include rounded percentage 87%%", msg)
	}
	if pct := sink.published[0].Metadata["percentage"]; pct != 87.0 {
		t.Errorf("metadata percentage = %v, want 87", pct)
	}
}

func TestBudgetThreshold_OnlyTightestThresholdFires(t *testing.T) {
	// 120% is over both crossings; only budget_critical may fire.
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	e := newBudgetThreshold(singleCategory(500), spendMock(600), allEnabledPrefs(), openGate(), sink, now)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if summary.Sent != 1 {
		t.Fatalf("sent %d notifications, want 1", summary.Sent)
	}
	if sink.published[0].Type != notification.TypeBudgetCritical {
		t.Errorf("type = %q, want %q", sink.published[0].Type, notification.TypeBudgetCritical)
	}
}

func TestBudgetThreshold_SecondRunSameMonthSuppressed(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	gate := NewGate(&mockDup{
		ExistsFunc: func(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error) {
			if !since.Equal(monthStart) {
				t.Errorf("dedup window starts at %v, want %v", since, monthStart)
			}
			if matchKey != "category" || matchValue != "Groceries" {
				t.Errorf("dedup key = %s=%s, want category=Groceries", matchKey, matchValue)
			}
			return true, nil
		},
	})
	e := newBudgetThreshold(singleCategory(500), spendMock(450), allEnabledPrefs(), gate, sink, now)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if summary.Sent != 0 || len(sink.published) != 0 {
		t.Errorf("second run published %d notifications, want 0", len(sink.published))
	}
	if len(summary.Details) != 1 || summary.Details[0].Reason != "duplicate suppressed" {
		t.Errorf("detail = %+v, want duplicate suppressed", summary.Details)
	}
}

func TestBudgetThreshold_PreferenceGating(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	disabled := notification.DefaultPreferences("user-1")
	disabled.BudgetAlerts = false

	tests := []struct {
		name  string
		prefs *mockPrefs
	}{
		{name: "Budget alerts disabled", prefs: &mockPrefs{prefs: disabled}},
		{name: "Preferences row absent", prefs: &mockPrefs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			e := newBudgetThreshold(singleCategory(500), spendMock(500), tt.prefs, openGate(), sink, now)

			summary, err := e.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() failed: %v", err)
			}
			if summary.Sent != 0 || len(sink.published) != 0 {
				t.Errorf("published %d notifications, want 0", len(sink.published))
			}
		})
	}
}

func TestBudgetThreshold_PartialFailureIsolated(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cats := &mockCategories{
		ListWithBudgetFunc: func(ctx context.Context) ([]*category.Category, error) {
			return []*category.Category{
				{ID: "cat-bad", UserID: "user-1", Name: "Broken", MonthlyBudget: 100},
				{ID: "cat-ok", UserID: "user-1", Name: "Groceries", MonthlyBudget: 500},
			}, nil
		},
	}
	txs := &mockTransactions{
		SumExpensesFunc: func(ctx context.Context, userID string, categoryID *string, from, to time.Time) (float64, error) {
			if categoryID != nil && *categoryID == "cat-bad" {
				return 0, errors.New("query timeout")
			}
			return 500, nil
		},
	}
	sink := &recordingSink{}
	e := newBudgetThreshold(cats, txs, allEnabledPrefs(), openGate(), sink, now)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if summary.Sent != 1 {
		t.Fatalf("sent %d notifications, want 1 (failing category skipped, sibling processed)", summary.Sent)
	}
	if sink.published[0].Metadata["category"] != "Groceries" {
		t.Errorf("notification for %v, want Groceries", sink.published[0].Metadata["category"])
	}
}

func TestBudgetThreshold_ListFailureIsFatal(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cats := &mockCategories{
		ListWithBudgetFunc: func(ctx context.Context) ([]*category.Category, error) {
			return nil, errors.New("connection refused")
		},
	}
	e := newBudgetThreshold(cats, &mockTransactions{}, allEnabledPrefs(), openGate(), &recordingSink{}, now)

	if _, err := e.Run(context.Background()); err == nil {
		t.Fatal("Run() expected error when listing categories fails, got nil")
	}
}
