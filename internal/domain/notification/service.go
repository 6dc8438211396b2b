package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Service contains the business logic for notification operations.
// It is the single write path for notification records: evaluators publish
// through it, the UI collaborator reads and marks through it.
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service. messenger may be nil when
// push delivery is not configured.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// Publish appends a notification record and best-effort delivers it as a
// push message to the user's active devices. Callers are responsible for
// preference gating and deduplication; a push failure never fails the
// insert.
func (s *Service) Publish(ctx context.Context, params CreateParams) (*Notification, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	n, err := s.repo.Insert(ctx, params)
	if err != nil {
		return nil, err
	}

	s.push(ctx, n)

	return n, nil
}

// Exists reports whether a matching notification was created at or after
// since. Used as the deduplication existence check by the rule engine.
func (s *Service) Exists(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error) {
	return s.repo.Exists(ctx, userID, notifType, matchKey, matchValue, since)
}

// push delivers a stored notification to the user's devices.
func (s *Service) push(ctx context.Context, n *Notification) {
	if s.messenger == nil {
		return
	}

	tokens, err := s.repo.GetActiveTokensByUserID(ctx, n.UserID)
	if err != nil {
		log.Printf("Notification %s: failed to load device tokens for user %s: %v", n.ID, n.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{
		"notification_id": n.ID,
		"type":            n.Type,
	}
	for k, v := range n.Metadata {
		data[k] = fmt.Sprint(v)
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	if err := s.messenger.SendMulticast(ctx, tokenStrings, n.Title, n.Message, data); err != nil {
		log.Printf("Notification %s: push delivery failed for user %s: %v", n.ID, n.UserID, err)
	}
}

// ListNotifications returns paginated notifications for a user.
func (s *Service) ListNotifications(ctx context.Context, userID string, page, perPage int) ([]*Notification, int, error) {
	if userID == "" {
		return nil, 0, errors.New("valid user ID is required")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return s.repo.ListByUserID(ctx, userID, page, perPage)
}

// MarkRead marks a single notification as read by its owner.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	if notificationID == "" {
		return errors.New("notification ID is required")
	}
	if userID == "" {
		return errors.New("valid user ID is required")
	}

	return s.repo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead marks every notification of a user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("valid user ID is required")
	}

	return s.repo.MarkAllRead(ctx, userID)
}

// ClearAll deletes all notifications of a user (bulk account reset).
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("valid user ID is required")
	}

	return s.repo.DeleteByUserID(ctx, userID)
}

// GetPreferences returns the notification preferences for a user.
// Returns all-enabled defaults if none have been saved yet.
func (s *Service) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	if userID == "" {
		return nil, errors.New("valid user ID is required")
	}

	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPreferencesNotFound) {
			return DefaultPreferences(userID), nil
		}
		return nil, err
	}

	return prefs, nil
}

// UpdatePreferences updates notification preferences for a user.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, params UpdatePreferenceParams) (*Preferences, error) {
	if userID == "" {
		return nil, errors.New("valid user ID is required")
	}
	if params.SummaryTime != nil {
		if _, err := time.Parse("15:04:05", *params.SummaryTime); err != nil {
			return nil, ErrInvalidSummaryTime
		}
	}

	return s.repo.UpsertPreferences(ctx, userID, params)
}

// RegisterDevice registers a device token for the authenticated user and
// lazily creates default notification preferences.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	token, err := s.repo.UpsertDeviceToken(ctx, params)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPreferences(ctx, params.UserID); errors.Is(err, ErrPreferencesNotFound) {
		if _, err := s.repo.UpsertPreferences(ctx, params.UserID, UpdatePreferenceParams{}); err != nil {
			log.Printf("Warning: failed to create default notification preferences for user %s: %v", params.UserID, err)
		}
	}

	return token, nil
}
