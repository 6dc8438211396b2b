package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"kakeibo/internal/domain/category"
	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/messages"
)

func newAnomaly(history []float64, prefs PreferenceSource, sink *recordingSink) *Anomaly {
	cats := &mockCategories{
		GetByIDFunc: func(ctx context.Context, id string) (*category.Category, error) {
			return &category.Category{ID: id, UserID: "user-1", Name: "Dining"}, nil
		},
	}
	txs := &mockTransactions{
		ListExpenseAmountsFunc: func(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error) {
			return history, nil
		},
	}
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	return NewAnomaly(cats, txs, prefs, sink, fixedClock{now}, DefaultPolicy(), messages.Default())
}

func TestAnomaly_StrictMultiplier(t *testing.T) {
	tests := []struct {
		name         string
		history      []float64
		amount       float64
		wantDetected bool
	}{
		{
			name:    "Above three times the average",
			history: []float64{10, 10, 10}, amount: 35,
			wantDetected: true,
		},
		{
			name:    "Exactly three times the average",
			history: []float64{10, 10, 10}, amount: 30,
			wantDetected: false,
		},
		{
			name:    "Just under the threshold",
			history: []float64{20, 30, 40}, amount: 90,
			wantDetected: false,
		},
		{
			name:    "Well above a mixed history",
			history: []float64{5, 10, 15, 10}, amount: 31,
			wantDetected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			e := newAnomaly(tt.history, allEnabledPrefs(), sink)

			result, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "user-1", CategoryID: "cat-1", Amount: tt.amount})
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if result.Detected != tt.wantDetected {
				t.Errorf("Detected = %v, want %v (average %v, threshold %v)", result.Detected, tt.wantDetected, result.Average, result.Threshold)
			}
			wantPublished := 0
			if tt.wantDetected {
				wantPublished = 1
			}
			if len(sink.published) != wantPublished {
				t.Errorf("published %d notifications, want %d", len(sink.published), wantPublished)
			}
		})
	}
}

func TestAnomaly_ResultCarriesAverageAndThreshold(t *testing.T) {
	sink := &recordingSink{}
	e := newAnomaly([]float64{10, 10, 10}, allEnabledPrefs(), sink)

	result, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "user-1", CategoryID: "cat-1", Amount: 35})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if result.Average != 10 {
		t.Errorf("Average = %v, want 10", result.Average)
	}
	if result.Threshold != 30 {
		t.Errorf("Threshold = %v, want 30", result.Threshold)
	}
	if result.SampleCount != 3 {
		t.Errorf("SampleCount = %v, want 3", result.SampleCount)
	}

	got := sink.published[0]
	if got.Type != notification.TypeAnomalyAlert {
		t.Errorf("type = %q, want %q", got.Type, notification.TypeAnomalyAlert)
	}
	if got.Metadata["category"] != "Dining" {
		t.Errorf("metadata category = %v, want Dining", got.Metadata["category"])
	}
	if got.Metadata["average"] != 10.0 {
		t.Errorf("metadata average = %v, want 10", got.Metadata["average"])
	}
}

func TestAnomaly_InsufficientData(t *testing.T) {
	sink := &recordingSink{}
	e := newAnomaly([]float64{500, 500}, allEnabledPrefs(), sink)

	result, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "user-1", CategoryID: "cat-1", Amount: 9999})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !result.InsufficientData {
		t.Error("InsufficientData = false, want true with only 2 prior transactions")
	}
	if result.Detected {
		t.Error("Detected = true, want false")
	}
	if len(sink.published) != 0 {
		t.Errorf("published %d notifications, want 0", len(sink.published))
	}
}

func TestAnomaly_PreferenceGating(t *testing.T) {
	disabled := notification.DefaultPreferences("user-1")
	disabled.AnomalyAlerts = false

	tests := []struct {
		name  string
		prefs *mockPrefs
	}{
		{name: "Anomaly alerts disabled", prefs: &mockPrefs{prefs: disabled}},
		{name: "Preferences row absent", prefs: &mockPrefs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			e := newAnomaly([]float64{10, 10, 10}, tt.prefs, sink)

			result, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "user-1", CategoryID: "cat-1", Amount: 9999})
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if result.Detected || len(sink.published) != 0 {
				t.Errorf("evaluator acted with alerts unavailable: %+v", result)
			}
		})
	}
}

func TestAnomaly_HistoryQueryFailureIsFatal(t *testing.T) {
	txs := &mockTransactions{
		ListExpenseAmountsFunc: func(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error) {
			return nil, errors.New("query timeout")
		},
	}
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	e := NewAnomaly(&mockCategories{}, txs, allEnabledPrefs(), &recordingSink{}, fixedClock{now}, DefaultPolicy(), messages.Default())

	if _, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "user-1", CategoryID: "cat-1", Amount: 10}); err == nil {
		t.Fatal("Evaluate() expected error when history query fails, got nil")
	}
}

func TestAnomaly_MissingInput(t *testing.T) {
	e := newAnomaly(nil, allEnabledPrefs(), &recordingSink{})

	if _, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "", CategoryID: "cat-1"}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Evaluate() with empty user ID: got %v, want ErrMissingInput", err)
	}
	if _, err := e.Evaluate(context.Background(), AnomalyInput{UserID: "user-1", CategoryID: ""}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Evaluate() with empty category ID: got %v, want ErrMissingInput", err)
	}
}
