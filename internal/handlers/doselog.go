package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"pillr/internal/database"
	"pillr/internal/models"
	"pillr/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogDose records a manual intake report against a schedule event
func LogDose(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	eventID := c.Param("event_id")

	var req models.LogDoseRequest
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

	doseLog := models.DoseLog{
		EventID:    event.ID,
		Username:   username,
		Status:     req.Status,
		Source:     models.SourceManual,
		RecordedAt: time.Now(),
	}

	if err := db.Create(&doseLog).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to record dose", err)
		return
	}

	if err := LogActivity(c, username, "log_dose", doseLog.ID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	c.JSON(http.StatusCreated, doseLog)
}

// GetDoseLogs lists intake records for a user, newest first. Linked caregivers
// may view a patient's history.
func GetDoseLogs(c *gin.Context) {
	requester := c.GetString("username")
	username := c.DefaultQuery("username", requester)

	if !canViewAccount(requester, username) {
		handleError(c, http.StatusForbidden, "Not allowed to view these dose logs",
			errors.New("requester is not the patient or a linked caregiver"))
		return
	}

	db := database.GetDB()
	query := db.Where("username = ?", username)

	if eventID := c.Query("event_id"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}

	var logs []models.DoseLog
	if err := query.Order("recorded_at desc").Limit(200).Find(&logs).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch dose logs", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// GetAdherenceHandler returns a handler that computes adherence statistics
// over a date range
func GetAdherenceHandler(adherenceService *services.AdherenceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester := c.GetString("username")
		username := c.DefaultQuery("username", requester)

		if !canViewAccount(requester, username) {
			handleError(c, http.StatusForbidden, "Not allowed to view this adherence data",
				errors.New("requester is not the patient or a linked caregiver"))
			return
		}

		// Default to the last 7 days
		now := time.Now().UTC()
		from := c.DefaultQuery("from", now.AddDate(0, 0, -6).Format("2006-01-02"))
		to := c.DefaultQuery("to", now.Format("2006-01-02"))

		summary, err := adherenceService.Summarize(username, from, to)
		if err != nil {
			handleError(c, http.StatusBadRequest, "Failed to compute adherence", err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
