package rules

import (
	"context"
	"fmt"
	"log"

	"kakeibo/internal/domain/notification"
	"kakeibo/internal/shared/messages"
)

// MissingLog reminds users who have not recorded any transaction today.
// Re-running it on the same day is harmless: the dedup window starts at
// midnight, so the second run finds the first reminder and stays silent.
type MissingLog struct {
	profiles     ProfileSource
	transactions TransactionSource
	prefs        PreferenceSource
	gate         *Gate
	sink         Sink
	clock        Clock
	catalog      *messages.Catalog
}

func NewMissingLog(profiles ProfileSource, transactions TransactionSource, prefs PreferenceSource, gate *Gate, sink Sink, clock Clock, catalog *messages.Catalog) *MissingLog {
	return &MissingLog{
		profiles:     profiles,
		transactions: transactions,
		prefs:        prefs,
		gate:         gate,
		sink:         sink,
		clock:        clock,
		catalog:      catalog,
	}
}

// Run sweeps all users. Per-user failures are logged and skipped.
func (e *MissingLog) Run(ctx context.Context) (*Summary, error) {
	userIDs, err := e.profiles.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	summary := &Summary{}
	for _, userID := range userIDs {
		detail, err := e.evaluateUser(ctx, userID)
		if err != nil {
			log.Printf("Missing-log check: user %s: %v", userID, err)
			continue
		}
		summary.add(detail)
	}

	return summary, nil
}

func (e *MissingLog) evaluateUser(ctx context.Context, userID string) (Detail, error) {
	detail := Detail{UserID: userID, Type: notification.TypeMissingLog}

	prefs, err := loadPreferences(ctx, e.prefs, userID)
	if err != nil {
		return detail, err
	}
	if prefs == nil || !prefs.MissingLogAlerts {
		detail.Reason = "missing-log alerts disabled"
		return detail, nil
	}

	today := startOfDay(e.clock.Now())
	detail.Subject = today.Format("2006-01-02")

	hasAny, err := e.transactions.HasAnyOnDate(ctx, userID, today)
	if err != nil {
		return detail, err
	}
	if hasAny {
		detail.Reason = "transactions logged today"
		return detail, nil
	}

	// One reminder per day.
	allowed, err := e.gate.Allow(ctx, userID, notification.TypeMissingLog, "", "", today)
	if err != nil {
		return detail, err
	}
	if !allowed {
		detail.Reason = "duplicate suppressed"
		return detail, nil
	}

	_, err = e.sink.Publish(ctx, notification.CreateParams{
		UserID:  userID,
		Type:    notification.TypeMissingLog,
		Title:   e.catalog.MissingLog.Title,
		Message: e.catalog.MissingLog.Body,
		Metadata: map[string]any{
			"date": today.Format("2006-01-02"),
		},
	})
	if err != nil {
		return detail, err
	}

	detail.Sent = true
	return detail, nil
}
