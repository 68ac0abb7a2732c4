package models

import "time"

// ReminderSent tracks which reminders have been sent to avoid duplicates.
// The unique index on (event_id, reminder_date) is the dedup guard: writers
// must insert with conflict-ignore so overlapping sweeps can never record the
// same reminder twice.
type ReminderSent struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	EventID           string    `gorm:"size:36;not null;uniqueIndex:idx_reminder_event_date" json:"event_id"`
	ReminderDate      string    `gorm:"size:10;not null;uniqueIndex:idx_reminder_event_date" json:"reminder_date"` // "2006-01-02" UTC
	Username          string    `gorm:"size:30;not null;index" json:"username"`
	Message           string    `gorm:"type:text;not null" json:"message"`
	ProviderMessageID string    `gorm:"size:100" json:"provider_message_id"`
	SentAt            time.Time `gorm:"not null" json:"sent_at"`
}

// TableName specifies the table name for the ReminderSent model
func (ReminderSent) TableName() string {
	return "reminder_sent"
}
