package models

import "time"

// Notification is an in-app notice shown on the dashboard bell
type Notification struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	RecipientUsername string    `gorm:"size:30;not null;index" json:"recipient_username"`
	Type              string    `gorm:"size:30;not null" json:"type"` // caregiver_linked, dose_missed, ...
	Message           string    `gorm:"size:500;not null" json:"message"`
	SubjectID         string    `gorm:"size:50" json:"subject_id"`
	Read              bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt         time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notification"
}
