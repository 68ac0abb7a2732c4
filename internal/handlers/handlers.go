package handlers

import (
	"log"
	"net/http"
	"time"

	"pillr/internal/database"
	"pillr/internal/models"
	"pillr/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to Pillr!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// DashboardHandler serves the user dashboard page
func DashboardHandler(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		c.Redirect(http.StatusTemporaryRedirect, "/create-profile")
		return
	}
	c.String(http.StatusOK, "Welcome to your dashboard, %s!", username)
}

// CreateProfilePageHandler serves the profile creation page
func CreateProfilePageHandler(c *gin.Context) {
	// Show the profile creation form for new users
	email := c.GetString("email")
	name := c.GetString("name")
	picture := c.GetString("picture")
	c.String(http.StatusOK, "Create your profile. Suggested email: %s, name: %s, picture: %s", email, name, picture)
}

// LogActivity adds a new activity to the user's audit history
func LogActivity(c *gin.Context, username, eventType, subjectID string) error {
	activity := models.ActivityLog{
		Username:  username,
		EventType: eventType,
		SubjectID: subjectID,
		IPAddress: utils.GetRealClientIP(c),
		Timestamp: time.Now(),
	}

	db := database.GetDB()
	return db.Create(&activity).Error
}

// createNotification creates an in-app notification for a user
func createNotification(db *gorm.DB, recipient, notifType, message, subjectID string) error {
	notif := models.Notification{
		RecipientUsername: recipient,
		Type:              notifType,
		Message:           message,
		SubjectID:         subjectID,
		CreatedAt:         time.Now(),
		Read:              false,
	}
	return db.Create(&notif).Error
}
