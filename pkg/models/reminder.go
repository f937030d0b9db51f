package models

// ReminderSubscription describes where and when a learner wants due-review reminders
type ReminderSubscription struct {
	UserID           string `json:"user_id" db:"user_id"`
	ChatID           int64  `json:"chat_id" db:"chat_id"`                     // Telegram chat to notify
	NotificationHour int    `json:"notification_hour" db:"notification_hour"` // Hour of day for notifications (0-23)
	Enabled          bool   `json:"enabled" db:"enabled"`
}
