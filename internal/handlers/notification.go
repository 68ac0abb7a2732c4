package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pillr/internal/database"
	"pillr/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications lists the requester's notifications, newest first
func GetNotifications(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	db := database.GetDB()
	query := db.Where("recipient_username = ?", username)

	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").Limit(limit).Find(&notifications).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch notifications", err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the requester's notifications as read
func MarkNotificationRead(c *gin.Context) {
	username := c.GetString("username")
	notificationID := c.Param("notification_id")

	db := database.GetDB()
	result := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_username = ?", notificationID, username).
		Update("read", true)
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update notification", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		handleError(c, http.StatusNotFound, "Notification not found", gorm.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every notification of the requester as read
func MarkAllNotificationsRead(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	db := database.GetDB()
	if err := db.Model(&models.Notification{}).
		Where("recipient_username = ? AND read = ?", username, false).
		Update("read", true).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
