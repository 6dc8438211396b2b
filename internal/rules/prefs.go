package rules

import (
	"context"
	"errors"

	"kakeibo/internal/domain/notification"
)

// loadPreferences returns (nil, nil) when the user has no preferences row,
// which every evaluator treats as "nothing to do" for that user.
func loadPreferences(ctx context.Context, src PreferenceSource, userID string) (*notification.Preferences, error) {
	prefs, err := src.GetPreferences(ctx, userID)
	if errors.Is(err, notification.ErrPreferencesNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}
