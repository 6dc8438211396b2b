package notification

import (
	"context"
	"time"
)

// Repository defines the interface for notification data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// Notifications
	Insert(ctx context.Context, params CreateParams) (*Notification, error)
	ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*Notification, int, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteByUserID(ctx context.Context, userID string) error

	// Exists reports whether the user already has a notification of the
	// given type created at or after since. When matchKey is non-empty the
	// notification's metadata must also carry matchKey = matchValue.
	Exists(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error)

	// Notification preferences
	GetPreferences(ctx context.Context, userID string) (*Preferences, error)
	UpsertPreferences(ctx context.Context, userID string, params UpdatePreferenceParams) (*Preferences, error)

	// ListUserIDsBySummaryTime returns user IDs whose daily summary is
	// enabled and whose configured summary time matches hhmm ("15:04").
	ListUserIDsBySummaryTime(ctx context.Context, hhmm string) ([]string, error)

	// Device tokens
	UpsertDeviceToken(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error)
	GetActiveTokensByUserID(ctx context.Context, userID string) ([]*DeviceToken, error)
	DeactivateToken(ctx context.Context, token string) error
}
