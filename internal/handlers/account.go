package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pillr/internal/auth"
	"pillr/internal/database"
	"pillr/internal/models"
	"pillr/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateAccount completes registration after the first Google sign-in
func CreateAccount(c *gin.Context) {
	var req models.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	googleID := c.GetString("sub")
	email := c.GetString("email")
	if googleID == "" || email == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated",
			errors.New("session missing google identity"))
		return
	}

	if c.GetString("username") != "" {
		handleError(c, http.StatusConflict, "Profile already created",
			errors.New("session already linked to an account"))
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		handleError(c, http.StatusBadRequest, "Unknown timezone", err)
		return
	}

	now := time.Now()
	account := models.Account{
		Username:                req.Username,
		GoogleID:                googleID,
		Email:                   email,
		FullName:                c.GetString("name"),
		AvatarURL:               c.GetString("picture"),
		Role:                    req.Role,
		PhoneNumber:             req.PhoneNumber,
		SMSNotificationsEnabled: req.PhoneNumber != "",
		Timezone:                timezone,
		DateJoined:              now,
		LastLogin:               now,
	}

	db := database.GetDB()
	if err := db.Create(&account).Error; err != nil {
		// Check for common database errors like duplicate usernames
		if strings.Contains(err.Error(), "duplicate key") {
			if strings.Contains(err.Error(), "username") {
				handleError(c, http.StatusConflict, "Username already exists", err)
			} else if strings.Contains(err.Error(), "email") {
				handleError(c, http.StatusConflict, "Email already in use", err)
			} else {
				handleError(c, http.StatusConflict, "Account creation failed: duplicate data", err)
			}
			return
		}

		handleError(c, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	// Attach the new username to the current session
	if sessionID := c.GetString("session_id"); sessionID != "" {
		if err := auth.LinkSessionToUser(sessionID, account.Username); err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to link session", err)
			return
		}
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves account information
func GetAccount(c *gin.Context) {
	username := c.Param("username")
	requester := c.GetString("username")

	if !canViewAccount(requester, username) {
		handleError(c, http.StatusForbidden, "Not allowed to view this account",
			errors.New("requester is not the account owner or a linked caregiver"))
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Preload("Medications").Preload("Schedules").Preload("Schedules.Medications").
		Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UpdateAccount updates the requester's own profile fields
func UpdateAccount(c *gin.Context) {
	username := c.Param("username")
	requester := c.GetString("username")

	if requester == "" || requester != username {
		handleError(c, http.StatusForbidden, "Can only update your own account",
			errors.New("requester does not own this account"))
		return
	}

	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.SMSNotificationsEnabled != nil {
		updates["sms_notifications_enabled"] = *req.SMSNotificationsEnabled
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			handleError(c, http.StatusBadRequest, "Unknown timezone", err)
			return
		}
		updates["timezone"] = *req.Timezone
	}
	if len(updates) == 0 {
		handleError(c, http.StatusBadRequest, "No fields to update", errors.New("empty update request"))
		return
	}

	db := database.GetDB()
	result := db.Model(&models.Account{}).Where("username = ?", username).Updates(updates)
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update account", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		handleError(c, http.StatusNotFound, "Account not found", gorm.ErrRecordNotFound)
		return
	}

	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reload account", err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UploadAvatarHandler returns a handler that uploads a profile image
func UploadAvatarHandler(imageService *services.ImageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		requester := c.GetString("username")

		if requester == "" || requester != username {
			handleError(c, http.StatusForbidden, "Can only update your own avatar",
				errors.New("requester does not own this account"))
			return
		}

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			handleError(c, http.StatusBadRequest, "avatar file is required", err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to read upload", err)
			return
		}
		defer file.Close()

		if err := imageService.ValidateImageFile(file, 5<<20); err != nil {
			handleError(c, http.StatusBadRequest, err.Error(), err)
			return
		}

		url, err := imageService.UploadAvatar(file, fileHeader.Filename, username)
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to upload avatar", err)
			return
		}

		db := database.GetDB()
		if err := db.Model(&models.Account{}).Where("username = ?", username).
			Update("avatar_url", url).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to save avatar URL", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"avatar_url": url})
	}
}

// canViewAccount allows the owner and their linked caregivers
func canViewAccount(requester, username string) bool {
	if requester == "" {
		return false
	}
	if requester == username {
		return true
	}

	db := database.GetDB()
	var count int64
	db.Model(&models.CareLink{}).
		Where("patient_username = ? AND caregiver_username = ?", username, requester).
		Count(&count)
	return count > 0
}
