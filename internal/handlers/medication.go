package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"pillr/internal/database"
	"pillr/internal/models"
	"pillr/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateMedication adds a medication to the requester's cabinet
func CreateMedication(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
		return
	}

	var req models.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	medication := models.Medication{
		Username:     username,
		Name:         req.Name,
		BrandName:    req.BrandName,
		GenericName:  req.GenericName,
		Dosage:       req.Dosage,
		Instructions: req.Instructions,
	}

	db := database.GetDB()
	if err := db.Create(&medication).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create medication", err)
		return
	}

	if err := LogActivity(c, username, "create_medication", medication.ID); err != nil {
		log.Printf("Warning: Failed to log activity: %v", err)
	}

	c.JSON(http.StatusCreated, medication)
}

// GetMedicationsHandler returns a handler that lists or searches the
// requester's medications
func GetMedicationsHandler(searchService *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		if username == "" {
			handleError(c, http.StatusUnauthorized, "Not authenticated", errors.New("no username in session"))
			return
		}

		if query := c.Query("q"); query != "" {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
			medications, err := searchService.SearchMedications(username, query, limit)
			if err != nil {
				handleError(c, http.StatusInternalServerError, "Search failed", err)
				return
			}
			c.JSON(http.StatusOK, medications)
			return
		}

		db := database.GetDB()
		var medications []models.Medication
		if err := db.Where("username = ?", username).Order("name asc").Find(&medications).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to fetch medications", err)
			return
		}

		c.JSON(http.StatusOK, medications)
	}
}

// UpdateMedication updates a medication owned by the requester
func UpdateMedication(c *gin.Context) {
	username := c.GetString("username")
	medicationID := c.Param("medication_id")

	var req models.UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	var medication models.Medication
	if err := db.Where("id = ? AND username = ?", medicationID, username).First(&medication).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Medication not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch medication", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.BrandName != nil {
		updates["brand_name"] = *req.BrandName
	}
	if req.GenericName != nil {
		updates["generic_name"] = *req.GenericName
	}
	if req.Dosage != nil {
		updates["dosage"] = *req.Dosage
	}
	if req.Instructions != nil {
		updates["instructions"] = *req.Instructions
	}
	if len(updates) == 0 {
		handleError(c, http.StatusBadRequest, "No fields to update", errors.New("empty update request"))
		return
	}

	if err := db.Model(&medication).Updates(updates).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update medication", err)
		return
	}

	c.JSON(http.StatusOK, medication)
}

// DeleteMedication removes a medication owned by the requester
func DeleteMedication(c *gin.Context) {
	username := c.GetString("username")
	medicationID := c.Param("medication_id")

	db := database.GetDB()
	result := db.Where("id = ? AND username = ?", medicationID, username).Delete(&models.Medication{})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete medication", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		handleError(c, http.StatusNotFound, "Medication not found", gorm.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Medication deleted"})
}

// LookupDrugLabelHandler returns a handler that queries the open drug-label
// API and returns normalized matches for the medication form
func LookupDrugLabelHandler(labelService *services.DrugLabelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Query("name")
		if name == "" {
			handleError(c, http.StatusBadRequest, "name parameter is required", errors.New("missing name query"))
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
		labels, err := labelService.Lookup(c.Request.Context(), name, limit)
		if err != nil {
			if errors.Is(err, services.ErrDrugNotFound) {
				c.JSON(http.StatusOK, []services.DrugLabel{})
				return
			}
			handleError(c, http.StatusBadGateway, "Drug label lookup failed", err)
			return
		}

		c.JSON(http.StatusOK, labels)
	}
}

// AttachDrugLabelHandler returns a handler that caches a lookup result onto a
// medication record
func AttachDrugLabelHandler(labelService *services.DrugLabelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString("username")
		medicationID := c.Param("medication_id")

		db := database.GetDB()
		var medication models.Medication
		if err := db.Where("id = ? AND username = ?", medicationID, username).First(&medication).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				handleError(c, http.StatusNotFound, "Medication not found", err)
				return
			}
			handleError(c, http.StatusInternalServerError, "Failed to fetch medication", err)
			return
		}

		labels, err := labelService.Lookup(c.Request.Context(), medication.Name, 1)
		if err != nil {
			if errors.Is(err, services.ErrDrugNotFound) {
				handleError(c, http.StatusNotFound, "No label found for this medication", err)
				return
			}
			handleError(c, http.StatusBadGateway, "Drug label lookup failed", err)
			return
		}

		label := labels[0]
		cached, err := json.Marshal(label)
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to encode label", err)
			return
		}

		updates := map[string]interface{}{"label": cached}
		if label.BrandName != "" {
			updates["brand_name"] = label.BrandName
		}
		if label.GenericName != "" {
			updates["generic_name"] = label.GenericName
		}

		if err := db.Model(&medication).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to save label", err)
			return
		}

		c.JSON(http.StatusOK, medication)
	}
}
