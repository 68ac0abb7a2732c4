package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pillr/internal/services"

	"github.com/gin-gonic/gin"
)

// SearchPharmacies finds nearby pharmacies matching a text query
func SearchPharmacies(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		handleError(c, http.StatusBadRequest, "q parameter is required", errors.New("missing q query"))
		return
	}

	// Optional location bias
	lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
	lng, _ := strconv.ParseFloat(c.Query("lng"), 64)

	pharmacies, err := services.SearchPharmacies(query, lat, lng)
	if err != nil {
		handleError(c, http.StatusBadGateway, "Pharmacy search failed", err)
		return
	}

	c.JSON(http.StatusOK, pharmacies)
}

// GetPharmacy validates a place id and returns the pharmacy's details
func GetPharmacy(c *gin.Context) {
	placeID := c.Param("place_id")

	pharmacy, err := services.ValidatePharmacy(placeID)
	if err != nil {
		handleError(c, http.StatusNotFound, "Pharmacy not found", err)
		return
	}

	c.JSON(http.StatusOK, pharmacy)
}
