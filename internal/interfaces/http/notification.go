package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/middleware"
)

type NotificationHandler struct {
	notificationService *notification.Service
}

func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// --- Request/Response types ---

type RegisterDeviceRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

type UpdatePreferencesRequest struct {
	BudgetAlerts     *bool   `json:"budget_alerts"`
	DailySummary     *bool   `json:"daily_summary"`
	BillReminders    *bool   `json:"bill_reminders"`
	StreakRewards    *bool   `json:"streak_rewards"`
	AnomalyAlerts    *bool   `json:"anomaly_alerts"`
	MissingLogAlerts *bool   `json:"missing_log_alerts"`
	SummaryTime      *string `json:"summary_time"`
}

type NotificationListResponse struct {
	Notifications []*notification.Notification `json:"notifications"`
	Pagination    PaginationResponse           `json:"pagination"`
}

type PaginationResponse struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

type MarkReadRequest struct {
	NotificationID string `json:"notification_id"`
}

const maxNotificationBodySize = 1 << 20 // 1 MiB

// --- Handlers ---

// HandleNotifications handles GET (list) and DELETE (clear all) on
// /api/notifications/
func (h *NotificationHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, userID)
	case http.MethodDelete:
		h.handleClearAll(w, r, userID)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request, userID string) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 20
	}

	notifications, total, err := h.notificationService.ListNotifications(r.Context(), userID, page, perPage)
	if err != nil {
		log.Printf("Error listing notifications for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}

	respondJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: notifications,
		Pagination: PaginationResponse{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
		},
	})
}

func (h *NotificationHandler) handleClearAll(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.notificationService.ClearAll(r.Context(), userID); err != nil {
		log.Printf("Error clearing notifications for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to clear notifications")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// HandleMarkRead handles POST /api/notifications/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBodySize)
	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NotificationID == "" {
		respondError(w, http.StatusBadRequest, "notification_id is required")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), req.NotificationID, userID); err != nil {
		if err == notification.ErrNotificationNotFound {
			respondError(w, http.StatusNotFound, "notification not found")
			return
		}
		log.Printf("Error marking notification %s read: %v", req.NotificationID, err)
		respondError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// HandleMarkAllRead handles POST /api/notifications/read-all
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		log.Printf("Error marking all notifications read for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// HandlePreferences handles GET/PUT /api/notifications/preferences/
func (h *NotificationHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetPreferences(w, r, userID)
	case http.MethodPut:
		h.handleUpdatePreferences(w, r, userID)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *NotificationHandler) handleGetPreferences(w http.ResponseWriter, r *http.Request, userID string) {
	prefs, err := h.notificationService.GetPreferences(r.Context(), userID)
	if err != nil {
		log.Printf("Error getting preferences for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to get preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (h *NotificationHandler) handleUpdatePreferences(w http.ResponseWriter, r *http.Request, userID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBodySize)
	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := notification.UpdatePreferenceParams{
		BudgetAlerts:     req.BudgetAlerts,
		DailySummary:     req.DailySummary,
		BillReminders:    req.BillReminders,
		StreakRewards:    req.StreakRewards,
		AnomalyAlerts:    req.AnomalyAlerts,
		MissingLogAlerts: req.MissingLogAlerts,
		SummaryTime:      req.SummaryTime,
	}

	prefs, err := h.notificationService.UpdatePreferences(r.Context(), userID, params)
	if err != nil {
		if err == notification.ErrInvalidSummaryTime {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error updating preferences for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// HandleRegisterDevice handles POST /api/notifications/register-device/
func (h *NotificationHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBodySize)
	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := notification.CreateDeviceTokenParams{
		UserID:     userID,
		Token:      req.Token,
		DeviceType: req.DeviceType,
	}

	token, err := h.notificationService.RegisterDevice(r.Context(), params)
	if err != nil {
		if err == notification.ErrInvalidToken || err == notification.ErrInvalidDeviceType {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error registering device for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to register device")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"token": token.Token})
}
