package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateDeviceToken(t *testing.T) {
	t.Setenv("DEVICE_JWT_SECRET", "test-secret")

	token, expiry, err := GenerateDeviceToken("alice", "device-1")
	if err != nil {
		t.Fatalf("GenerateDeviceToken returned error: %v", err)
	}
	if time.Until(expiry) < DeviceTokenExpiry-time.Minute {
		t.Errorf("expiry %v is too soon", expiry)
	}

	claims, err := ValidateDeviceToken(token)
	if err != nil {
		t.Fatalf("ValidateDeviceToken returned error: %v", err)
	}
	if claims.Username != "alice" || claims.DeviceID != "device-1" {
		t.Errorf("claims = %+v, want alice/device-1", claims)
	}
}

func TestGenerateDeviceTokenRequiresSecret(t *testing.T) {
	t.Setenv("DEVICE_JWT_SECRET", "")

	if _, _, err := GenerateDeviceToken("alice", "device-1"); err == nil {
		t.Fatal("expected error without DEVICE_JWT_SECRET")
	}
}

func TestValidateDeviceTokenRejectsTampering(t *testing.T) {
	t.Setenv("DEVICE_JWT_SECRET", "test-secret")

	token, _, err := GenerateDeviceToken("alice", "device-1")
	if err != nil {
		t.Fatalf("GenerateDeviceToken returned error: %v", err)
	}

	t.Setenv("DEVICE_JWT_SECRET", "different-secret")
	if _, err := ValidateDeviceToken(token); !errors.Is(err, ErrInvalidDeviceToken) {
		t.Errorf("error = %v, want ErrInvalidDeviceToken", err)
	}
}

func TestValidateDeviceTokenRejectsExpired(t *testing.T) {
	t.Setenv("DEVICE_JWT_SECRET", "test-secret")

	claims := DeviceClaims{
		Username: "alice",
		DeviceID: "device-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := ValidateDeviceToken(signed); !errors.Is(err, ErrExpiredDeviceToken) {
		t.Errorf("error = %v, want ErrExpiredDeviceToken", err)
	}
}

func TestDeviceAuthMiddleware(t *testing.T) {
	t.Setenv("DEVICE_JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(DeviceAuthMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username":  c.GetString("username"),
			"device_id": c.GetString("device_id"),
		})
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := GenerateDeviceToken("alice", "device-1")
		if err != nil {
			t.Fatalf("GenerateDeviceToken returned error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
