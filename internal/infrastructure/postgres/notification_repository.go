package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/domain/notification"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert appends one notification record. Records are never updated in
// place afterwards except for the read flag.
func (r *NotificationRepository) Insert(ctx context.Context, params notification.CreateParams) (*notification.Notification, error) {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification metadata: %w", err)
	}

	query := `
		INSERT INTO notifications (id, user_id, type, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, type, title, message, metadata, read, created_at
	`

	var (
		n   notification.Notification
		raw []byte
	)
	err = r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.UserID, params.Type, params.Title, params.Message, metadata,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &raw, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	if err := json.Unmarshal(raw, &n.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode notification metadata: %w", err)
	}

	return &n, nil
}

// Exists is the dedup existence check. An empty matchKey matches on
// (user, type, window) alone; otherwise the notification metadata must
// carry matchKey = matchValue.
func (r *NotificationRepository) Exists(ctx context.Context, userID, notifType, matchKey, matchValue string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1
			  AND type = $2
			  AND created_at >= $3
			  AND ($4 = '' OR metadata->>$4 = $5)
			LIMIT 1
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, notifType, since, matchKey, matchValue).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing notification: %w", err)
	}

	return exists, nil
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT id, user_id, type, title, message, metadata, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		var (
			n   notification.Notification
			raw []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &raw, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := json.Unmarshal(raw, &n.Metadata); err != nil {
			return nil, 0, fmt.Errorf("failed to decode notification metadata: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, total, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return notification.ErrNotificationNotFound
	}

	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetPreferences(ctx context.Context, userID string) (*notification.Preferences, error) {
	query := `
		SELECT user_id, budget_alerts, daily_summary, bill_reminders, streak_rewards,
		       anomaly_alerts, missing_log_alerts, summary_time::text, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`

	var p notification.Preferences
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.BudgetAlerts, &p.DailySummary, &p.BillReminders, &p.StreakRewards,
		&p.AnomalyAlerts, &p.MissingLogAlerts, &p.SummaryTime, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notification.ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}

	return &p, nil
}

func (r *NotificationRepository) UpsertPreferences(ctx context.Context, userID string, params notification.UpdatePreferenceParams) (*notification.Preferences, error) {
	query := `
		INSERT INTO notification_preferences (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure notification preferences: %w", err)
	}

	update := `
		UPDATE notification_preferences SET
			budget_alerts      = COALESCE($2, budget_alerts),
			daily_summary      = COALESCE($3, daily_summary),
			bill_reminders     = COALESCE($4, bill_reminders),
			streak_rewards     = COALESCE($5, streak_rewards),
			anomaly_alerts     = COALESCE($6, anomaly_alerts),
			missing_log_alerts = COALESCE($7, missing_log_alerts),
			summary_time       = COALESCE($8::time, summary_time),
			updated_at         = NOW()
		WHERE user_id = $1
		RETURNING user_id, budget_alerts, daily_summary, bill_reminders, streak_rewards,
		          anomaly_alerts, missing_log_alerts, summary_time::text, updated_at
	`

	var p notification.Preferences
	err := r.db.QueryRowContext(ctx, update, userID,
		params.BudgetAlerts, params.DailySummary, params.BillReminders, params.StreakRewards,
		params.AnomalyAlerts, params.MissingLogAlerts, params.SummaryTime,
	).Scan(
		&p.UserID, &p.BudgetAlerts, &p.DailySummary, &p.BillReminders, &p.StreakRewards,
		&p.AnomalyAlerts, &p.MissingLogAlerts, &p.SummaryTime, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert notification preferences: %w", err)
	}

	return &p, nil
}

// ListUserIDsBySummaryTime returns the users whose daily summary should
// fire in the given wall-clock minute.
func (r *NotificationRepository) ListUserIDsBySummaryTime(ctx context.Context, hhmm string) ([]string, error) {
	query := `
		SELECT user_id
		FROM notification_preferences
		WHERE daily_summary = true
		  AND to_char(summary_time, 'HH24:MI') = $1
	`

	rows, err := r.db.QueryContext(ctx, query, hhmm)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by summary time: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *NotificationRepository) UpsertDeviceToken(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error) {
	query := `
		INSERT INTO device_tokens (id, user_id, token, device_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE
			SET user_id = EXCLUDED.user_id,
			    device_type = EXCLUDED.device_type,
			    is_active = true,
			    last_used = NOW()
		RETURNING id, user_id, token, device_type, is_active, created_at, last_used
	`

	var dt notification.DeviceToken
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), params.UserID, params.Token, params.DeviceType).Scan(
		&dt.ID, &dt.UserID, &dt.Token, &dt.DeviceType, &dt.IsActive, &dt.CreatedAt, &dt.LastUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}

	return &dt, nil
}

func (r *NotificationRepository) GetActiveTokensByUserID(ctx context.Context, userID string) ([]*notification.DeviceToken, error) {
	query := `
		SELECT id, user_id, token, device_type, is_active, created_at, last_used
		FROM device_tokens
		WHERE user_id = $1 AND is_active = true
		ORDER BY last_used DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*notification.DeviceToken
	for rows.Next() {
		var dt notification.DeviceToken
		if err := rows.Scan(&dt.ID, &dt.UserID, &dt.Token, &dt.DeviceType, &dt.IsActive, &dt.CreatedAt, &dt.LastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, &dt)
	}

	return tokens, rows.Err()
}

func (r *NotificationRepository) DeactivateToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE device_tokens SET is_active = false WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate token: %w", err)
	}
	return nil
}
