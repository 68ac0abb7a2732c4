package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoseStatus is the recorded outcome of a scheduled dose
type DoseStatus string

const (
	DoseTaken   DoseStatus = "taken"
	DoseSkipped DoseStatus = "skipped"
	DoseMissed  DoseStatus = "missed"
)

// DoseSource records who reported the dose
type DoseSource string

const (
	SourceManual DoseSource = "manual" // patient or caregiver in the app
	SourceDevice DoseSource = "device" // the pill dispenser
)

// DoseLog represents one intake record for a schedule event. Adherence
// statistics are aggregated from these rows.
type DoseLog struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	EventID    string     `gorm:"size:36;not null;index" json:"event_id"`
	Username   string     `gorm:"size:30;not null;index" json:"username"`
	Status     DoseStatus `gorm:"size:10;not null" json:"status"`
	Source     DoseSource `gorm:"size:10;not null" json:"source"`
	RecordedAt time.Time  `gorm:"not null;index" json:"recorded_at"`
}

// BeforeCreate hook assigns an ID and timestamp
func (d *DoseLog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.RecordedAt.IsZero() {
		d.RecordedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the DoseLog model
func (DoseLog) TableName() string {
	return "dose_log"
}

// LogDoseRequest represents a manual intake report
type LogDoseRequest struct {
	Status DoseStatus `json:"status" binding:"required,oneof=taken skipped missed"`
}

// DeviceDoseEvent represents an intake report pushed by the dispenser
type DeviceDoseEvent struct {
	EventID    string    `json:"event_id" binding:"required"`
	Status     string    `json:"status" binding:"required,oneof=taken skipped"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AdherenceSummary aggregates dose logs over a date range
type AdherenceSummary struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Expected int64   `json:"expected"`
	Taken    int64   `json:"taken"`
	Skipped  int64   `json:"skipped"`
	Missed   int64   `json:"missed"`
	Rate     float64 `json:"rate"` // taken / expected, 0 when nothing expected
}
