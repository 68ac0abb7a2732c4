package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"pillr/internal/auth"
	"pillr/internal/database"
	"pillr/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueDeviceToken mints a long-lived JWT for the requester's pill dispenser.
// The dispenser stores the token and uses it to push intake events.
func IssueDeviceToken(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	deviceID := uuid.NewString()
	token, expiresAt, err := auth.GenerateDeviceToken(username, deviceID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to issue device token", err)
		return
	}

	if err := LogActivity(c, username, "issue_device_token", deviceID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"device_id":  deviceID,
		"expires_at": expiresAt,
	})
}

// IngestDeviceDoseEvent records an intake event pushed by the dispenser.
// Runs behind DeviceAuthMiddleware, so username comes from the device JWT.
func IngestDeviceDoseEvent(c *gin.Context) {
	username := c.GetString("username")
	deviceID := c.GetString("device_id")

	var req models.DeviceDoseEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var event models.ScheduleEvent
	if err := db.Where("id = ? AND username = ?", req.EventID, username).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Schedule event not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch schedule event", err)
		return
	}

	recordedAt := req.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	doseLog := models.DoseLog{
		EventID:    event.ID,
		Username:   username,
		Status:     models.DoseStatus(req.Status),
		Source:     models.SourceDevice,
		RecordedAt: recordedAt,
	}

	if err := db.Create(&doseLog).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to record dose", err)
		return
	}

	log.Printf("Device %s recorded %s dose for event %s (user %s)", deviceID, req.Status, event.ID, username)

	c.JSON(http.StatusCreated, doseLog)
}
