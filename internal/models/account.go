package models

import (
	"time"

	"gorm.io/gorm"
)

// AccountRole distinguishes patients from the caregivers linked to them
type AccountRole string

const (
	RolePatient   AccountRole = "patient"
	RoleCaregiver AccountRole = "caregiver"
)

// ActivityLog represents an entry in the user's activity history
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"size:30;not null;index" json:"username"`
	EventType string    `gorm:"size:30;not null" json:"event_type"` // create_schedule, log_dose, link_caregiver, ...
	SubjectID string    `gorm:"size:50;not null" json:"subject_id"`
	IPAddress string    `gorm:"size:45" json:"-"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// Account represents a user account in the system. It doubles as the
// notification profile: the reminder dispatcher reads PhoneNumber,
// SMSNotificationsEnabled and Timezone from here.
type Account struct {
	Username                string          `gorm:"primaryKey;size:30;not null" json:"username"`
	GoogleID                string          `gorm:"uniqueIndex;size:128" json:"-"`
	Email                   string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	EmailVerified           bool            `gorm:"not null;default:false" json:"email_verified"`
	FullName                string          `gorm:"size:100" json:"full_name"`
	AvatarURL               string          `gorm:"size:500" json:"avatar_url"`
	Role                    AccountRole     `gorm:"size:20;not null;default:patient" json:"role"`
	PhoneNumber             string          `gorm:"size:20" json:"phone_number"` // E.164
	SMSNotificationsEnabled bool            `gorm:"not null;default:false" json:"sms_notifications_enabled"`
	Timezone                string          `gorm:"size:64;not null;default:UTC" json:"timezone"` // IANA name
	DateJoined              time.Time       `gorm:"not null" json:"date_joined"`
	LastLogin               time.Time       `gorm:"not null" json:"last_login"`
	Activities              []ActivityLog   `gorm:"foreignKey:Username" json:"activities,omitempty"`
	Schedules               []ScheduleEvent `gorm:"foreignKey:Username" json:"schedules,omitempty"`
	Medications             []Medication    `gorm:"foreignKey:Username" json:"medications,omitempty"`
	CreatedAt               time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt               time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt               gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = now
	}
	if a.LastLogin.IsZero() {
		a.LastLogin = now
	}
	if a.Role == "" {
		a.Role = RolePatient
	}
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}

// TableName specifies the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_log"
}

// CompleteProfileRequest represents the data needed to finish registration
// after the first Google sign-in
type CompleteProfileRequest struct {
	Username    string      `json:"username" binding:"required,alphanum,min=3,max=30"`
	Role        AccountRole `json:"role" binding:"required,oneof=patient caregiver"`
	PhoneNumber string      `json:"phone_number" binding:"omitempty,e164"`
	Timezone    string      `json:"timezone"`
}

// UpdateAccountRequest represents the mutable profile fields
type UpdateAccountRequest struct {
	FullName                *string `json:"full_name"`
	PhoneNumber             *string `json:"phone_number" binding:"omitempty,e164"`
	SMSNotificationsEnabled *bool   `json:"sms_notifications_enabled"`
	Timezone                *string `json:"timezone"`
}
