package handlers

import (
	"errors"
	"net/http"

	"pillr/internal/auth"
	"pillr/internal/database"
	"pillr/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoginHandler redirects to Google OAuth login
func LoginHandler(c *gin.Context) {
	url, err := auth.GetLoginURL(c)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate login URL", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallbackHandler processes the OAuth callback from Google
func GoogleCallbackHandler(c *gin.Context) {
	auth.HandleGoogleCallback(c)
}

// LogoutHandler handles user logout
func LogoutHandler(c *gin.Context) {
	auth.LogoutHandler(c)
}

// GetCurrentUser returns the account behind the active session
func GetCurrentUser(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		// Signed in with Google but profile not created yet
		c.JSON(http.StatusOK, gin.H{
			"profile_complete": false,
			"email":            c.GetString("email"),
			"name":             c.GetString("name"),
			"picture":          c.GetString("picture"),
		})
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile_complete": true,
		"account":          account,
	})
}
