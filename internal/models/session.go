package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionDuration is the length of time a session remains valid
const SessionDuration = time.Hour * 24 * 7 // 1 week

// Session represents a user session created after Google sign-in
type Session struct {
	ID          string    `gorm:"primaryKey;size:64" json:"-"`
	UserID      string    `gorm:"size:128;index" json:"-"` // Google ID
	Username    string    `gorm:"size:30;index" json:"-"`  // Username once profile is created
	Email       string    `gorm:"size:255" json:"-"`
	Name        string    `gorm:"size:100" json:"-"`
	Picture     string    `gorm:"size:500" json:"-"`
	AccessToken string    `gorm:"type:text" json:"-"` // encrypted at rest
	TokenExpiry time.Time `gorm:"index" json:"-"`
	CreatedIP   string    `gorm:"size:45" json:"-"`
	CreatedAt   time.Time `gorm:"not null" json:"-"`
	ExpiresAt   time.Time `gorm:"index" json:"-"`
}

// BeforeCreate hook for sessions
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = now.Add(SessionDuration)
	}
	return nil
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// HasActiveUser returns true if the session is associated with a registered user
func (s *Session) HasActiveUser() bool {
	return s.Username != ""
}

// TableName specifies the table name for the Session model
func (Session) TableName() string {
	return "session"
}
