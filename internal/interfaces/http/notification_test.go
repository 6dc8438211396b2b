package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kakeibo/internal/domain/notification"
)

// MockNotificationRepo implements notification.Repository for testing
type MockNotificationRepo struct {
	InsertFunc                   func(ctx context.Context, params notification.CreateParams) (*notification.Notification, error)
	ListByUserIDFunc             func(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error)
	MarkReadFunc                 func(ctx context.Context, notificationID, userID string) error
	MarkAllReadFunc              func(ctx context.Context, userID string) error
	DeleteByUserIDFunc           func(ctx context.Context, userID string) error
	ExistsFunc                   func(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error)
	GetPreferencesFunc           func(ctx context.Context, userID string) (*notification.Preferences, error)
	UpsertPreferencesFunc        func(ctx context.Context, userID string, params notification.UpdatePreferenceParams) (*notification.Preferences, error)
	ListUserIDsBySummaryTimeFunc func(ctx context.Context, hhmm string) ([]string, error)
	UpsertDeviceTokenFunc        func(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error)
	GetActiveTokensByUserIDFunc  func(ctx context.Context, userID string) ([]*notification.DeviceToken, error)
	DeactivateTokenFunc          func(ctx context.Context, token string) error
}

func (m *MockNotificationRepo) Insert(ctx context.Context, params notification.CreateParams) (*notification.Notification, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, params)
	}
	return &notification.Notification{ID: "n-1", UserID: params.UserID, Type: params.Type}, nil
}

func (m *MockNotificationRepo) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, page, perPage)
	}
	return nil, 0, nil
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, notificationID, userID)
	}
	return nil
}

func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return nil
}

func (m *MockNotificationRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, userID)
	}
	return nil
}

func (m *MockNotificationRepo) Exists(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, userID, notifType, matchKey, matchValue, since)
	}
	return false, nil
}

func (m *MockNotificationRepo) GetPreferences(ctx context.Context, userID string) (*notification.Preferences, error) {
	if m.GetPreferencesFunc != nil {
		return m.GetPreferencesFunc(ctx, userID)
	}
	return nil, notification.ErrPreferencesNotFound
}

func (m *MockNotificationRepo) UpsertPreferences(ctx context.Context, userID string, params notification.UpdatePreferenceParams) (*notification.Preferences, error) {
	if m.UpsertPreferencesFunc != nil {
		return m.UpsertPreferencesFunc(ctx, userID, params)
	}
	return notification.DefaultPreferences(userID), nil
}

func (m *MockNotificationRepo) ListUserIDsBySummaryTime(ctx context.Context, hhmm string) ([]string, error) {
	if m.ListUserIDsBySummaryTimeFunc != nil {
		return m.ListUserIDsBySummaryTimeFunc(ctx, hhmm)
	}
	return nil, nil
}

func (m *MockNotificationRepo) UpsertDeviceToken(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error) {
	if m.UpsertDeviceTokenFunc != nil {
		return m.UpsertDeviceTokenFunc(ctx, params)
	}
	return &notification.DeviceToken{ID: "d-1", UserID: params.UserID, Token: params.Token, DeviceType: params.DeviceType, IsActive: true}, nil
}

func (m *MockNotificationRepo) GetActiveTokensByUserID(ctx context.Context, userID string) ([]*notification.DeviceToken, error) {
	if m.GetActiveTokensByUserIDFunc != nil {
		return m.GetActiveTokensByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockNotificationRepo) DeactivateToken(ctx context.Context, token string) error {
	if m.DeactivateTokenFunc != nil {
		return m.DeactivateTokenFunc(ctx, token)
	}
	return nil
}

func newNotificationHandler(repo *MockNotificationRepo) *NotificationHandler {
	return NewNotificationHandler(notification.NewService(repo, nil))
}

func TestHandleNotifications_List(t *testing.T) {
	repo := &MockNotificationRepo{
		ListByUserIDFunc: func(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error) {
			if userID != "u-1" {
				t.Errorf("userID = %s, want u-1", userID)
			}
			return []*notification.Notification{
				{ID: "n-1", Type: notification.TypeBudgetWarning, Title: "Budget alert"},
				{ID: "n-2", Type: notification.TypeDailySummary, Title: "Daily summary"},
			}, 42, nil
		},
	}
	handler := newNotificationHandler(repo)

	rr := httptest.NewRecorder()
	handler.HandleNotifications(rr, authedRequest(http.MethodGet, "/api/notifications/?page=2&per_page=10", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool                      `json:"success"`
		Data    *NotificationListResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data.Notifications) != 2 {
		t.Errorf("got %d notifications, want 2", len(resp.Data.Notifications))
	}
	if resp.Data.Pagination.Total != 42 {
		t.Errorf("total = %d, want 42", resp.Data.Pagination.Total)
	}
	if resp.Data.Pagination.Pages != 5 {
		t.Errorf("pages = %d, want 5", resp.Data.Pagination.Pages)
	}
}

func TestHandleMarkRead(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		markReadErr    error
		expectedStatus int
	}{
		{"success", `{"notification_id":"n-1"}`, nil, http.StatusOK},
		{"missing id", `{}`, nil, http.StatusBadRequest},
		{"not found", `{"notification_id":"n-404"}`, notification.ErrNotificationNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockNotificationRepo{
				MarkReadFunc: func(ctx context.Context, notificationID, userID string) error {
					return tt.markReadErr
				},
			}
			handler := newNotificationHandler(repo)

			rr := httptest.NewRecorder()
			handler.HandleMarkRead(rr, authedRequest(http.MethodPost, "/api/notifications/read", tt.body))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleMarkAllRead(t *testing.T) {
	var called bool
	repo := &MockNotificationRepo{
		MarkAllReadFunc: func(ctx context.Context, userID string) error {
			called = true
			return nil
		},
	}
	handler := newNotificationHandler(repo)

	rr := httptest.NewRecorder()
	handler.HandleMarkAllRead(rr, authedRequest(http.MethodPost, "/api/notifications/read-all", ""))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if !called {
		t.Error("MarkAllRead was not called")
	}
}

func TestHandlePreferences_GetDefaultsWhenUnset(t *testing.T) {
	handler := newNotificationHandler(&MockNotificationRepo{})

	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, authedRequest(http.MethodGet, "/api/notifications/preferences/", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool                      `json:"success"`
		Data    *notification.Preferences `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Data.DailySummary || !resp.Data.BudgetAlerts {
		t.Error("expected all-enabled defaults")
	}
	if resp.Data.SummaryTime != notification.DefaultSummaryTime {
		t.Errorf("summary time = %s, want %s", resp.Data.SummaryTime, notification.DefaultSummaryTime)
	}
}

func TestHandlePreferences_UpdateInvalidSummaryTime(t *testing.T) {
	handler := newNotificationHandler(&MockNotificationRepo{})

	body := `{"summary_time":"9pm"}`
	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, authedRequest(http.MethodPut, "/api/notifications/preferences/", body))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandlePreferences_Update(t *testing.T) {
	repo := &MockNotificationRepo{
		UpsertPreferencesFunc: func(ctx context.Context, userID string, params notification.UpdatePreferenceParams) (*notification.Preferences, error) {
			if params.DailySummary == nil || *params.DailySummary {
				t.Error("expected daily_summary=false to be passed through")
			}
			prefs := notification.DefaultPreferences(userID)
			prefs.DailySummary = false
			return prefs, nil
		},
	}
	handler := newNotificationHandler(repo)

	body := `{"daily_summary":false}`
	rr := httptest.NewRecorder()
	handler.HandlePreferences(rr, authedRequest(http.MethodPut, "/api/notifications/preferences/", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleRegisterDevice(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"success", `{"token":"fcm-token-1","device_type":"android"}`, http.StatusCreated},
		{"missing token", `{"device_type":"android"}`, http.StatusBadRequest},
		{"bad device type", `{"token":"fcm-token-1","device_type":"toaster"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newNotificationHandler(&MockNotificationRepo{})

			rr := httptest.NewRecorder()
			handler.HandleRegisterDevice(rr, authedRequest(http.MethodPost, "/api/notifications/register-device/", tt.body))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d; body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleNotifications_Unauthorized(t *testing.T) {
	handler := newNotificationHandler(&MockNotificationRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/", bytes.NewBufferString(""))
	rr := httptest.NewRecorder()
	handler.HandleNotifications(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
