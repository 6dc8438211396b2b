package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kakeibo/internal/domain/category"
	"kakeibo/internal/domain/transaction"
	"kakeibo/internal/shared/middleware"
)

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	MockTransactionSource
	CreateFunc func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
}

func (m *MockTransactionRepo) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &transaction.Transaction{
		ID:         "t-1",
		UserID:     params.UserID,
		CategoryID: params.CategoryID,
		Amount:     params.Amount,
		Kind:       params.Kind,
		Date:       params.Date,
	}, nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, "u-1")
	return req.WithContext(ctx)
}

func TestHandleCreateTransaction_Success(t *testing.T) {
	repo := &MockTransactionRepo{}
	anomaly := newTestAnomaly(&MockCategorySource{}, &repo.MockTransactionSource, &MockPreferenceSource{}, &MockSink{})
	handler := NewTransactionHandler(repo, anomaly)

	body := `{"amount":25.5,"kind":"expense","category_id":"c-1","date":"2026-03-10"}`
	rr := httptest.NewRecorder()
	handler.HandleCreateTransaction(rr, authedRequest(http.MethodPost, "/api/transactions/", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool                       `json:"success"`
		Data    *CreateTransactionResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Transaction.Amount != 25.5 {
		t.Errorf("amount = %v, want 25.5", resp.Data.Transaction.Amount)
	}
	// No prior samples, so the check reports insufficient data rather
	// than a detection.
	if resp.Data.Anomaly == nil {
		t.Fatal("expected anomaly result on categorized expense")
	}
	if resp.Data.Anomaly.Detected {
		t.Error("expected no detection with empty history")
	}
}

func TestHandleCreateTransaction_AnomalyDetectedBeforeInsert(t *testing.T) {
	var historyAskedBeforeInsert bool
	var inserted bool
	repo := &MockTransactionRepo{}
	repo.ListExpenseAmountsFunc = func(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error) {
		historyAskedBeforeInsert = !inserted
		return []float64{10, 10, 10}, nil
	}
	repo.CreateFunc = func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
		inserted = true
		return &transaction.Transaction{ID: "t-1", UserID: params.UserID, Amount: params.Amount, Kind: params.Kind, Date: params.Date}, nil
	}
	categories := &MockCategorySource{
		GetByIDFunc: func(ctx context.Context, id string) (*category.Category, error) {
			return &category.Category{ID: id, UserID: "u-1", Name: "Dining"}, nil
		},
	}
	sink := &MockSink{}
	anomaly := newTestAnomaly(categories, &repo.MockTransactionSource, &MockPreferenceSource{}, sink)
	handler := NewTransactionHandler(repo, anomaly)

	body := `{"amount":35,"kind":"expense","category_id":"c-1","date":"2026-03-10"}`
	rr := httptest.NewRecorder()
	handler.HandleCreateTransaction(rr, authedRequest(http.MethodPost, "/api/transactions/", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rr.Code, rr.Body.String())
	}
	if !historyAskedBeforeInsert {
		t.Error("anomaly history was read after the insert")
	}
	if !inserted {
		t.Error("transaction was not inserted")
	}
	if len(sink.Published) != 1 {
		t.Errorf("published %d notifications, want 1", len(sink.Published))
	}
}

func TestHandleCreateTransaction_Validation(t *testing.T) {
	repo := &MockTransactionRepo{}
	anomaly := newTestAnomaly(&MockCategorySource{}, &repo.MockTransactionSource, &MockPreferenceSource{}, &MockSink{})
	handler := NewTransactionHandler(repo, anomaly)

	tests := []struct {
		name string
		body string
	}{
		{"missing amount", `{"kind":"expense","date":"2026-03-10"}`},
		{"negative amount", `{"amount":-5,"kind":"expense","date":"2026-03-10"}`},
		{"bad kind", `{"amount":5,"kind":"transfer","date":"2026-03-10"}`},
		{"income with category", `{"amount":5,"kind":"income","category_id":"c-1","date":"2026-03-10"}`},
		{"bad date", `{"amount":5,"kind":"expense","date":"10/03/2026"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.HandleCreateTransaction(rr, authedRequest(http.MethodPost, "/api/transactions/", tt.body))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestHandleCreateTransaction_IncomeSkipsAnomalyCheck(t *testing.T) {
	repo := &MockTransactionRepo{}
	repo.ListExpenseAmountsFunc = func(ctx context.Context, userID, categoryID string, from, to time.Time) ([]float64, error) {
		t.Error("anomaly history should not be read for income")
		return nil, nil
	}
	anomaly := newTestAnomaly(&MockCategorySource{}, &repo.MockTransactionSource, &MockPreferenceSource{}, &MockSink{})
	handler := NewTransactionHandler(repo, anomaly)

	body := `{"amount":1000,"kind":"income","date":"2026-03-10"}`
	rr := httptest.NewRecorder()
	handler.HandleCreateTransaction(rr, authedRequest(http.MethodPost, "/api/transactions/", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleCreateTransaction_Unauthorized(t *testing.T) {
	repo := &MockTransactionRepo{}
	anomaly := newTestAnomaly(&MockCategorySource{}, &repo.MockTransactionSource, &MockPreferenceSource{}, &MockSink{})
	handler := NewTransactionHandler(repo, anomaly)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	handler.HandleCreateTransaction(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
