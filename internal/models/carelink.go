package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionCodeTTL is how long a generated connection code stays redeemable
const ConnectionCodeTTL = time.Minute * 15

// CareLink connects a caregiver to a patient. Links are created by redeeming
// a connection code the patient generated.
type CareLink struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	PatientUsername   string    `gorm:"size:30;not null;index" json:"patient_username"`
	CaregiverUsername string    `gorm:"size:30;not null;index" json:"caregiver_username"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook assigns an ID
func (l *CareLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the CareLink model
func (CareLink) TableName() string {
	return "care_link"
}

// ConnectionCode is a short-lived code a patient hands to a caregiver
type ConnectionCode struct {
	Code            string    `gorm:"primaryKey;size:12" json:"code"`
	PatientUsername string    `gorm:"size:30;not null;index" json:"-"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
	Used            bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

// IsExpired checks if the code is past its TTL
func (c *ConnectionCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// TableName specifies the table name for the ConnectionCode model
func (ConnectionCode) TableName() string {
	return "connection_code"
}

// GenerateCodeRequest optionally emails the code to the caregiver
type GenerateCodeRequest struct {
	CaregiverEmail string `json:"caregiver_email" binding:"omitempty,email"`
}

// RedeemCodeRequest represents a caregiver redeeming a connection code
type RedeemCodeRequest struct {
	Code string `json:"code" binding:"required,min=6,max=12"`
}
