package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pillr/internal/database"
	"pillr/internal/models"
	"pillr/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeSessionAuth stands in for the session middleware in handler tests
func fakeSessionAuth(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("username", username)
		c.Next()
	}
}

func newCareLinkRouter(t *testing.T, caregiver string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// Handlers in this package resolve the DB through the package global
	previous := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = previous })

	accounts := []models.Account{
		{Username: "alice", GoogleID: "google-alice", Email: "alice@example.com", Role: models.RolePatient},
		{Username: "bob", GoogleID: "google-bob", Email: "bob@example.com", Role: models.RoleCaregiver},
	}
	for i := range accounts {
		if err := db.Create(&accounts[i]).Error; err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
	}

	router := gin.New()
	router.Use(fakeSessionAuth(caregiver))
	router.POST("/links/redeem", RedeemConnectionCodeHandler(services.NewEmailService()))
	return router, db
}

func redeem(router *gin.Engine, code string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(models.RedeemCodeRequest{Code: code})
	req := httptest.NewRequest(http.MethodPost, "/links/redeem", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRedeemConnectionCode(t *testing.T) {
	router, db := newCareLinkRouter(t, "bob")

	code := models.ConnectionCode{
		Code:            "ABCD1234",
		PatientUsername: "alice",
		ExpiresAt:       time.Now().Add(models.ConnectionCodeTTL),
		CreatedAt:       time.Now(),
	}
	if err := db.Create(&code).Error; err != nil {
		t.Fatalf("failed to create connection code: %v", err)
	}

	w := redeem(router, "ABCD1234")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	var link models.CareLink
	if err := db.Where("patient_username = ? AND caregiver_username = ?", "alice", "bob").
		First(&link).Error; err != nil {
		t.Fatalf("expected a care link row: %v", err)
	}

	// The patient gets an in-app notification
	var notifCount int64
	db.Model(&models.Notification{}).
		Where("recipient_username = ? AND type = ?", "alice", "caregiver_linked").
		Count(&notifCount)
	if notifCount != 1 {
		t.Errorf("notification count = %d, want 1", notifCount)
	}

	// The code is burned; a second redemption conflicts
	w = redeem(router, "ABCD1234")
	if w.Code != http.StatusConflict {
		t.Errorf("second redemption status = %d, want 409", w.Code)
	}
}

func TestRedeemConnectionCodeExpired(t *testing.T) {
	router, db := newCareLinkRouter(t, "bob")

	code := models.ConnectionCode{
		Code:            "OLDCODE1",
		PatientUsername: "alice",
		ExpiresAt:       time.Now().Add(-time.Minute),
		CreatedAt:       time.Now().Add(-20 * time.Minute),
	}
	if err := db.Create(&code).Error; err != nil {
		t.Fatalf("failed to create connection code: %v", err)
	}

	if w := redeem(router, "OLDCODE1"); w.Code != http.StatusGone {
		t.Errorf("status = %d, want 410", w.Code)
	}
}

func TestRedeemConnectionCodeUnknown(t *testing.T) {
	router, _ := newCareLinkRouter(t, "bob")

	if w := redeem(router, "NOPE9999"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRedeemConnectionCodeSelfLink(t *testing.T) {
	router, db := newCareLinkRouter(t, "alice")

	code := models.ConnectionCode{
		Code:            "SELFLINK",
		PatientUsername: "alice",
		ExpiresAt:       time.Now().Add(models.ConnectionCodeTTL),
		CreatedAt:       time.Now(),
	}
	if err := db.Create(&code).Error; err != nil {
		t.Fatalf("failed to create connection code: %v", err)
	}

	if w := redeem(router, "SELFLINK"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
