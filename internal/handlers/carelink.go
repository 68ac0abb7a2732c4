package handlers

import (
	"errors"
	"io"
	"log"
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

// connectionCodeLength is the length of the generated connection code
const connectionCodeLength = 8

// GenerateConnectionCodeHandler returns a handler that creates a short-lived
// connection code a caregiver can redeem to link with the patient
func GenerateConnectionCodeHandler(emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		if username == "" {
			handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
			return
		}

		// Body is optional, an empty request just skips the invite email
		var req models.GenerateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			handleError(c, http.StatusBadRequest, "Invalid input", err)
			return
		}

		raw, err := auth.GenerateRandomString(connectionCodeLength)
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to generate code", err)
			return
		}
		code := strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(raw, "-", "X"), "_", "Y"))

		connectionCode := models.ConnectionCode{
			Code:            code,
			PatientUsername: username,
			ExpiresAt:       time.Now().Add(models.ConnectionCodeTTL),
			CreatedAt:       time.Now(),
		}

		db := database.GetDB()
		if err := db.Create(&connectionCode).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to store code", err)
			return
		}

		// Optionally email the code to the caregiver
		if req.CaregiverEmail != "" {
			var patient models.Account
			if err := db.Where("username = ?", username).First(&patient).Error; err == nil {
				patientName := patient.FullName
				if patientName == "" {
					patientName = patient.Username
				}
				if err := emailService.SendConnectionCodeEmail(req.CaregiverEmail, patientName, code); err != nil {
					log.Printf("Warning: Failed to email connection code: %v", err)
				}
			}
		}

		if err := LogActivity(c, username, "generate_code", code); err != nil {
			log.Printf("Warning: Failed to log activity: %v", err)
		}

		c.JSON(http.StatusCreated, connectionCode)
	}
}

// RedeemConnectionCodeHandler returns a handler that links the requesting
// caregiver to the patient behind the code
func RedeemConnectionCodeHandler(emailService *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		redeemConnectionCode(c, emailService)
	}
}

func redeemConnectionCode(c *gin.Context, emailService *services.EmailService) {
	caregiver := c.GetString("username")
	if caregiver == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	var req models.RedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var code models.ConnectionCode
	if err := db.Where("code = ?", strings.ToUpper(req.Code)).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Code not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to look up code", err)
		return
	}

	if code.Used {
		handleError(c, http.StatusConflict, "Code already used", errors.New("connection code reuse"))
		return
	}
	if code.IsExpired() {
		handleError(c, http.StatusGone, "Code expired", errors.New("connection code expired"))
		return
	}
	if code.PatientUsername == caregiver {
		handleError(c, http.StatusBadRequest, "Cannot link to yourself", errors.New("self link attempt"))
		return
	}

	// Check for an existing link
	var existing int64
	db.Model(&models.CareLink{}).
		Where("patient_username = ? AND caregiver_username = ?", code.PatientUsername, caregiver).
		Count(&existing)
	if existing > 0 {
		handleError(c, http.StatusConflict, "Already linked to this patient", errors.New("duplicate care link"))
		return
	}

	link := models.CareLink{
		PatientUsername:   code.PatientUsername,
		CaregiverUsername: caregiver,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		return tx.Model(&code).Update("used", true).Error
	})
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create care link", err)
		return
	}

	if err := LogActivity(c, caregiver, "link_caregiver", link.ID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	// Notify the patient
	msg := caregiver + " is now following your medication schedule"
	if err := createNotification(db, code.PatientUsername, "caregiver_linked", msg, link.ID); err != nil {
		log.Printf("Warning: Failed to create notification: %v", err)
	}

	var patient models.Account
	if err := db.Where("username = ?", code.PatientUsername).First(&patient).Error; err == nil {
		patientName := patient.FullName
		if patientName == "" {
			patientName = patient.Username
		}
		if err := emailService.SendCaregiverLinkedEmail(patient.Email, patientName, caregiver); err != nil {
			log.Printf("Warning: Failed to send caregiver-linked email: %v", err)
		}
	}

	c.JSON(http.StatusCreated, link)
}

// GetCareLinks lists the requester's care links, from both sides
func GetCareLinks(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	db := database.GetDB()
	var links []models.CareLink
	if err := db.Where("patient_username = ? OR caregiver_username = ?", username, username).
		Order("created_at desc").Find(&links).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch care links", err)
		return
	}

	c.JSON(http.StatusOK, links)
}

// DeleteCareLink removes a care link. Either side can sever it.
func DeleteCareLink(c *gin.Context) {
	username := c.GetString("username")
	linkID := c.Param("link_id")

	db := database.GetDB()
	var link models.CareLink
	if err := db.Where("id = ?", linkID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Care link not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch care link", err)
		return
	}

	if link.PatientUsername != username && link.CaregiverUsername != username {
		handleError(c, http.StatusForbidden, "Not a participant of this link",
			errors.New("requester is not on either side of the care link"))
		return
	}

	if err := db.Delete(&link).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete care link", err)
		return
	}

	if err := LogActivity(c, username, "unlink_caregiver", linkID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Care link removed"})
}
