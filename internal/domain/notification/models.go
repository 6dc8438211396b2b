package notification

import (
	"errors"
	"time"
)

// Notification types
const (
	TypeBudgetWarning  = "budget_warning"
	TypeBudgetCritical = "budget_critical"
	TypeDailySummary   = "daily_summary"
	TypeStreakReward   = "streak_reward"
	TypeMissingLog     = "missing_log"
	TypeAnomalyAlert   = "anomaly_alert"
)

var validTypes = map[string]struct{}{
	TypeBudgetWarning:  {},
	TypeBudgetCritical: {},
	TypeDailySummary:   {},
	TypeStreakReward:   {},
	TypeMissingLog:     {},
	TypeAnomalyAlert:   {},
}

var validDeviceTypes = map[string]struct{}{
	"ios":     {},
	"android": {},
	"web":     {},
}

// DefaultSummaryTime is used when a user has never set a summary time.
const DefaultSummaryTime = "20:00:00"

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPreferencesNotFound  = errors.New("notification preferences not found")
	ErrDeviceTokenNotFound  = errors.New("device token not found")
	ErrInvalidType          = errors.New("invalid notification type")
	ErrInvalidDeviceType    = errors.New("device type must be 'ios', 'android' or 'web'")
	ErrInvalidToken         = errors.New("device token is required")
	ErrInvalidSummaryTime   = errors.New("invalid summary time, expected HH:MM:SS")
)

// Notification represents a stored notification record. Records are
// write-once facts: created by an evaluator, mutated only by marking read,
// deleted only by explicit user action.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"-"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

// Preferences stores per-type notification toggles and the daily summary
// delivery time for a user.
type Preferences struct {
	UserID           string    `json:"-"`
	BudgetAlerts     bool      `json:"budget_alerts"`
	DailySummary     bool      `json:"daily_summary"`
	BillReminders    bool      `json:"bill_reminders"`
	StreakRewards    bool      `json:"streak_rewards"`
	AnomalyAlerts    bool      `json:"anomaly_alerts"`
	MissingLogAlerts bool      `json:"missing_log_alerts"`
	SummaryTime      string    `json:"summary_time"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultPreferences returns the all-enabled defaults applied when a user
// has never saved preferences.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:           userID,
		BudgetAlerts:     true,
		DailySummary:     true,
		BillReminders:    true,
		StreakRewards:    true,
		AnomalyAlerts:    true,
		MissingLogAlerts: true,
		SummaryTime:      DefaultSummaryTime,
	}
}

// IsTypeEnabled checks whether the toggle governing a notification type is on.
func (p *Preferences) IsTypeEnabled(notifType string) bool {
	switch notifType {
	case TypeBudgetWarning, TypeBudgetCritical:
		return p.BudgetAlerts
	case TypeDailySummary:
		return p.DailySummary
	case TypeStreakReward:
		return p.StreakRewards
	case TypeMissingLog:
		return p.MissingLogAlerts
	case TypeAnomalyAlert:
		return p.AnomalyAlerts
	default:
		return false
	}
}

// DeviceToken represents a registered push device token.
type DeviceToken struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Token      string    `json:"token"`
	DeviceType string    `json:"deviceType"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsed   time.Time `json:"lastUsed"`
}

// CreateParams contains parameters for storing a notification.
type CreateParams struct {
	UserID   string
	Type     string
	Title    string
	Message  string
	Metadata map[string]any
}

func (p CreateParams) Validate() error {
	if p.UserID == "" {
		return errors.New("valid user ID is required")
	}
	if !IsValidType(p.Type) {
		return ErrInvalidType
	}
	if p.Title == "" {
		return errors.New("notification title is required")
	}
	if p.Message == "" {
		return errors.New("notification message is required")
	}
	return nil
}

// UpdatePreferenceParams contains fields for updating notification
// preferences. Nil fields are left unchanged.
type UpdatePreferenceParams struct {
	BudgetAlerts     *bool
	DailySummary     *bool
	BillReminders    *bool
	StreakRewards    *bool
	AnomalyAlerts    *bool
	MissingLogAlerts *bool
	SummaryTime      *string
}

// CreateDeviceTokenParams contains parameters for registering a device.
type CreateDeviceTokenParams struct {
	UserID     string
	Token      string
	DeviceType string
}

func (p CreateDeviceTokenParams) Validate() error {
	if p.UserID == "" {
		return errors.New("valid user ID is required")
	}
	if p.Token == "" {
		return ErrInvalidToken
	}
	if !IsValidDeviceType(p.DeviceType) {
		return ErrInvalidDeviceType
	}
	return nil
}

func IsValidType(t string) bool {
	_, ok := validTypes[t]
	return ok
}

func IsValidDeviceType(dt string) bool {
	_, ok := validDeviceTypes[dt]
	return ok
}
