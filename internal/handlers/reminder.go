package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"pillr/internal/services"

	"github.com/gin-gonic/gin"
)

// RunRemindersHandler returns the handler behind the external reminder
// trigger. A scheduler (or an operator) calls it with the shared bearer
// secret to run one sweep outside the built-in cron cadence.
func RunRemindersHandler(reminderService *services.ReminderService, triggerSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == token || subtle.ConstantTimeCompare([]byte(token), []byte(triggerSecret)) != 1 {
			handleError(c, http.StatusUnauthorized, "Invalid trigger secret",
				errors.New("reminder trigger called with a bad or missing bearer token"))
			return
		}

		result, err := reminderService.RunReminderSweep(time.Now().UTC())
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Reminder sweep failed", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"sent":    result.Sent,
			"errors":  result.Errors,
			"results": result.Results,
		})
	}
}
