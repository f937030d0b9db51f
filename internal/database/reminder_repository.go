package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

// ReminderRepository handles database operations for reminder subscriptions
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository creates a new repository instance
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Upsert creates or updates a user's subscription. An enabled subscription
// bound to another chat is left alone and review.ErrConflict is returned.
func (r *ReminderRepository) Upsert(ctx context.Context, sub *models.ReminderSubscription) error {
	if sub.NotificationHour < 0 || sub.NotificationHour > 23 {
		return fmt.Errorf("notification hour %d out of range 0-23", sub.NotificationHour)
	}

	query := r.db.Rebind(`
		INSERT INTO reminder_subscriptions (user_id, chat_id, notification_hour, enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			notification_hour = EXCLUDED.notification_hour,
			enabled = EXCLUDED.enabled
		WHERE reminder_subscriptions.chat_id = EXCLUDED.chat_id
			OR reminder_subscriptions.enabled = ?
	`)
	result, err := r.db.ExecContext(ctx, query, sub.UserID, sub.ChatID, sub.NotificationHour, sub.Enabled, false)
	if err != nil {
		return fmt.Errorf("failed to save reminder subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return review.ErrConflict
	}
	return nil
}

// DisableForChat turns off every subscription delivered to chatID, keeping
// the chosen hours. It returns how many were turned off.
func (r *ReminderRepository) DisableForChat(ctx context.Context, chatID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE reminder_subscriptions SET enabled = ? WHERE chat_id = ? AND enabled = ?`),
		false, chatID, true)
	if err != nil {
		return 0, fmt.Errorf("failed to update reminder subscriptions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ListForHour returns enabled subscriptions that should be notified at hour
func (r *ReminderRepository) ListForHour(ctx context.Context, hour int) ([]models.ReminderSubscription, error) {
	query := r.db.Rebind(`
		SELECT user_id, chat_id, notification_hour, enabled
		FROM reminder_subscriptions
		WHERE enabled = ? AND notification_hour = ?
		ORDER BY user_id
	`)

	subs := []models.ReminderSubscription{}
	if err := r.db.SelectContext(ctx, &subs, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get reminder subscriptions: %w", err)
	}
	return subs, nil
}
