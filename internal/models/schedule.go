package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schema day-of-week convention: 1 = Monday .. 7 = Sunday.
const (
	MinDayOfWeek = 1
	MaxDayOfWeek = 7
)

// ScheduleEvent represents one recurring dose on a patient's weekly grid.
// DoseTime is a UTC time-of-day ("HH:mm"); the event repeats every week on
// DayOfWeek.
type ScheduleEvent struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Username    string       `gorm:"size:30;not null;index" json:"username"`
	DayOfWeek   int          `gorm:"not null;index" json:"day_of_week"` // 1=Monday .. 7=Sunday
	DoseTime    string       `gorm:"size:5;not null" json:"dose_time"`  // "HH:mm" UTC
	Description string       `gorm:"size:500" json:"description"`
	Medications []Medication `gorm:"many2many:schedule_event_medication" json:"medications"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook assigns an ID and timestamps
func (e *ScheduleEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the ScheduleEvent model
func (ScheduleEvent) TableName() string {
	return "schedule_event"
}

// CreateScheduleEventRequest represents the data needed to add a dose to the
// weekly schedule
type CreateScheduleEventRequest struct {
	DayOfWeek     int      `json:"day_of_week" binding:"required,min=1,max=7"`
	DoseTime      string   `json:"dose_time" binding:"required"`
	Description   string   `json:"description" binding:"max=500"`
	MedicationIDs []string `json:"medication_ids"`
}

// UpdateScheduleEventRequest represents the mutable fields of a schedule event
type UpdateScheduleEventRequest struct {
	DayOfWeek     *int     `json:"day_of_week" binding:"omitempty,min=1,max=7"`
	DoseTime      *string  `json:"dose_time"`
	Description   *string  `json:"description" binding:"omitempty,max=500"`
	MedicationIDs []string `json:"medication_ids"`
}
