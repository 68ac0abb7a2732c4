package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidDeviceToken = errors.New("invalid device token")
	ErrExpiredDeviceToken = errors.New("device token has expired")
)

// DeviceTokenExpiry is how long an issued dispenser token stays valid
const DeviceTokenExpiry = time.Hour * 24 * 90

// DeviceClaims represents the claims in a pill-dispenser JWT. The dispenser
// holds one long-lived token bound to its owner's account.
type DeviceClaims struct {
	Username string `json:"username"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// GenerateDeviceToken creates a new JWT for a dispenser device
func GenerateDeviceToken(username, deviceID string) (string, time.Time, error) {
	secretKey := os.Getenv("DEVICE_JWT_SECRET")
	if secretKey == "" {
		return "", time.Time{}, fmt.Errorf("DEVICE_JWT_SECRET environment variable not set")
	}

	expiry := time.Now().Add(DeviceTokenExpiry)
	claims := DeviceClaims{
		Username: username,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "pillr",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign device token: %w", err)
	}

	return signed, expiry, nil
}

// ValidateDeviceToken parses and validates a dispenser JWT
func ValidateDeviceToken(tokenString string) (*DeviceClaims, error) {
	secretKey := os.Getenv("DEVICE_JWT_SECRET")
	if secretKey == "" {
		return nil, fmt.Errorf("DEVICE_JWT_SECRET environment variable not set")
	}

	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredDeviceToken
		}
		return nil, ErrInvalidDeviceToken
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidDeviceToken
	}

	return claims, nil
}

// DeviceAuthMiddleware validates the dispenser JWT from the Authorization header
func DeviceAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "device token required"})
			c.Abort()
			return
		}

		claims, err := ValidateDeviceToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("device_id", claims.DeviceID)
		c.Next()
	}
}
