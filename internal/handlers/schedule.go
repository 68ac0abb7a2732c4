package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"pillr/internal/database"
	"pillr/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// validateDoseTime checks the "HH:mm" form used by the weekly schedule grid
func validateDoseTime(doseTime string) error {
	if _, err := time.Parse("15:04", doseTime); err != nil {
		return fmt.Errorf("dose_time must be HH:mm in UTC: %w", err)
	}
	return nil
}

// loadOwnedMedications resolves medication ids and verifies ownership
func loadOwnedMedications(db *gorm.DB, username string, ids []string) ([]models.Medication, error) {
	if len(ids) == 0 {
		return []models.Medication{}, nil
	}

	var medications []models.Medication
	if err := db.Where("id IN ? AND username = ?", ids, username).Find(&medications).Error; err != nil {
		return nil, err
	}
	if len(medications) != len(ids) {
		return nil, fmt.Errorf("one or more medications not found")
	}
	return medications, nil
}

// CreateScheduleEvent adds a dose to the requester's weekly schedule
func CreateScheduleEvent(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	var req models.CreateScheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if err := validateDoseTime(req.DoseTime); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	db := database.GetDB()
	medications, err := loadOwnedMedications(db, username, req.MedicationIDs)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid medication ids", err)
		return
	}

	event := models.ScheduleEvent{
		Username:    username,
		DayOfWeek:   req.DayOfWeek,
		DoseTime:    req.DoseTime,
		Description: req.Description,
		Medications: medications,
	}

	if err := db.Create(&event).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create schedule event", err)
		return
	}

	if err := LogActivity(c, username, "create_schedule", event.ID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	c.JSON(http.StatusCreated, event)
}

// GetSchedule lists a user's weekly schedule. Caregivers linked to the
// patient may view it too.
func GetSchedule(c *gin.Context) {
	requester := c.GetString("username")
	username := c.DefaultQuery("username", requester)

	if !canViewAccount(requester, username) {
		handleError(c, http.StatusForbidden, "Not allowed to view this schedule",
			errors.New("requester is not the patient or a linked caregiver"))
		return
	}

	db := database.GetDB()
	var events []models.ScheduleEvent
	query := db.Preload("Medications").Where("username = ?", username)

	if day := c.Query("day_of_week"); day != "" {
		query = query.Where("day_of_week = ?", day)
	}

	if err := query.Order("day_of_week asc, dose_time asc").Find(&events).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch schedule", err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// UpdateScheduleEvent updates a dose on the requester's weekly schedule
func UpdateScheduleEvent(c *gin.Context) {
	username := c.GetString("username")
	eventID := c.Param("event_id")

	var req models.UpdateScheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var event models.ScheduleEvent
	if err := db.Where("id = ? AND username = ?", eventID, username).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Schedule event not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch schedule event", err)
		return
	}

	updates := map[string]interface{}{}
	if req.DayOfWeek != nil {
		updates["day_of_week"] = *req.DayOfWeek
	}
	if req.DoseTime != nil {
		if err := validateDoseTime(*req.DoseTime); err != nil {
			handleError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		updates["dose_time"] = *req.DoseTime
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := db.Model(&event).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update schedule event", err)
			return
		}
	}

	if req.MedicationIDs != nil {
		medications, err := loadOwnedMedications(db, username, req.MedicationIDs)
		if err != nil {
			handleError(c, http.StatusBadRequest, "Invalid medication ids", err)
			return
		}
		if err := db.Model(&event).Association("Medications").Replace(medications); err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update medications", err)
			return
		}
	}

	if err := db.Preload("Medications").Where("id = ?", eventID).First(&event).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reload schedule event", err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteScheduleEvent removes a dose from the requester's weekly schedule
func DeleteScheduleEvent(c *gin.Context) {
	username := c.GetString("username")
	eventID := c.Param("event_id")

	db := database.GetDB()
	var event models.ScheduleEvent
	if err := db.Where("id = ? AND username = ?", eventID, username).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Schedule event not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch schedule event", err)
		return
	}

	if err := db.Select("Medications").Delete(&event).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete schedule event", err)
		return
	}

	if err := LogActivity(c, username, "delete_schedule", eventID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule event deleted"})
}
