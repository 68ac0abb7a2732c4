package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Medication represents a drug a patient takes. BrandName and GenericName
// come from the drug-label API when the user picks a lookup result; Name is
// whatever the user typed.
type Medication struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Username     string         `gorm:"size:30;not null;index" json:"username"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	BrandName    string         `gorm:"size:200" json:"brand_name"`
	GenericName  string         `gorm:"size:200" json:"generic_name"`
	Dosage       string         `gorm:"size:100" json:"dosage"` // e.g. "500 mg"
	Instructions string         `gorm:"size:500" json:"instructions"`
	Label        datatypes.JSON `gorm:"type:jsonb" json:"label,omitempty"` // cached drug-label API payload
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook assigns an ID and timestamps
func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	return nil
}

// DisplayName returns the name used in reminder messages:
// brand name first, then generic name, then the raw name.
func (m Medication) DisplayName() string {
	if m.BrandName != "" {
		return m.BrandName
	}
	if m.GenericName != "" {
		return m.GenericName
	}
	return m.Name
}

// TableName specifies the table name for the Medication model
func (Medication) TableName() string {
	return "medication"
}

// CreateMedicationRequest represents the data needed to add a medication
type CreateMedicationRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	BrandName    string `json:"brand_name" binding:"max=200"`
	GenericName  string `json:"generic_name" binding:"max=200"`
	Dosage       string `json:"dosage" binding:"max=100"`
	Instructions string `json:"instructions" binding:"max=500"`
}

// UpdateMedicationRequest represents the mutable fields of a medication
type UpdateMedicationRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=200"`
	BrandName    *string `json:"brand_name" binding:"omitempty,max=200"`
	GenericName  *string `json:"generic_name" binding:"omitempty,max=200"`
	Dosage       *string `json:"dosage" binding:"omitempty,max=100"`
	Instructions *string `json:"instructions" binding:"omitempty,max=500"`
}
