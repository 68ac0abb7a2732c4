package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pillr/internal/config"
	"pillr/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sweepWindow is the width of the reminder eligibility window. It matches the
// sweep cadence: each dose is eligible for exactly one sweep cycle.
const sweepWindow = 5 * time.Minute

// ErrInvalidDoseTime is returned for dose times not in "HH:mm" form
var ErrInvalidDoseTime = errors.New("invalid dose time, expected HH:mm")

// SchemaWeekday maps Go's weekday numbering (0=Sunday) to the schedule
// convention of 1=Monday .. 7=Sunday, using the UTC day of the instant.
func SchemaWeekday(t time.Time) int {
	wd := int(t.UTC().Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// parseDoseTime parses a "HH:mm" UTC time-of-day
func parseDoseTime(s string) (hour, minute int, err error) {
	t, parseErr := time.Parse("15:04", s)
	if parseErr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDoseTime, s)
	}
	return t.Hour(), t.Minute(), nil
}

// ShouldSendReminder reports whether a reminder for a dose at doseTimeUTC
// ("HH:mm") on dayOfWeek (1=Monday..7=Sunday) is due at instant now.
//
// The ideal reminder instant is the dose time minus leadMinutes. To tolerate
// trigger jitter, the instant is floored to the sweep cadence boundary and the
// eligibility window is [floor(ideal), floor(ideal)+5m], both ends inclusive.
// Pure function; the only error is a malformed dose time.
func ShouldSendReminder(doseTimeUTC string, dayOfWeek, leadMinutes int, now time.Time) (bool, error) {
	now = now.UTC()
	if SchemaWeekday(now) != dayOfWeek {
		return false, nil
	}

	hour, minute, err := parseDoseTime(doseTimeUTC)
	if err != nil {
		return false, err
	}

	doseAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	ideal := doseAt.Add(-time.Duration(leadMinutes) * time.Minute)
	windowStart := ideal.Truncate(sweepWindow)
	windowEnd := windowStart.Add(sweepWindow)

	return !now.Before(windowStart) && !now.After(windowEnd), nil
}

// ReminderService runs the reminder sweep: it finds due doses, formats the
// reminder text and hands it to the SMS transport. Both the cron worker and
// the manual trigger endpoint call the same sweep.
type ReminderService struct {
	db  *gorm.DB
	sms SMSProvider
	cfg config.ReminderConfig
}

// NewReminderService creates a dispatcher with an injected transport and config
func NewReminderService(db *gorm.DB, sms SMSProvider, cfg config.ReminderConfig) *ReminderService {
	return &ReminderService{
		db:  db,
		sms: sms,
		cfg: cfg,
	}
}

// SweepItem is the per-event outcome of one sweep
type SweepItem struct {
	EventID           string `json:"event_id"`
	Username          string `json:"username"`
	Sent              bool   `json:"sent"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// SweepResult aggregates one sweep run
type SweepResult struct {
	Sent    int         `json:"sent"`
	Errors  int         `json:"errors"`
	Results []SweepItem `json:"results"`
}

// RunReminderSweep evaluates every dose scheduled for today and sends SMS
// reminders for the ones whose window contains now. A failed candidate query
// aborts the sweep; everything after that is per-event and never stops the
// loop.
func (s *ReminderService) RunReminderSweep(now time.Time) (*SweepResult, error) {
	now = now.UTC()
	today := SchemaWeekday(now)
	reminderDate := now.Format("2006-01-02")

	var events []models.ScheduleEvent
	if err := s.db.Preload("Medications").
		Where("day_of_week = ?", today).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch scheduled doses: %w", err)
	}

	result := &SweepResult{Results: []SweepItem{}}
	if len(events) == 0 {
		return result, nil
	}

	accounts, err := s.notifiableAccounts(events)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification profiles: %w", err)
	}

	for _, event := range events {
		account, ok := accounts[event.Username]
		if !ok {
			// SMS disabled or no phone number on file
			continue
		}

		due, err := ShouldSendReminder(event.DoseTime, event.DayOfWeek, s.cfg.LeadMinutes, now)
		if err != nil {
			result.Errors++
			result.Results = append(result.Results, SweepItem{
				EventID:  event.ID,
				Username: event.Username,
				Error:    err.Error(),
			})
			continue
		}
		if !due {
			continue
		}

		if s.hasReminderBeenSent(event.ID, reminderDate) {
			continue
		}

		message := BuildReminderMessage(event, account.Timezone)
		messageID, err := s.sms.SendSMS(account.PhoneNumber, message, account.Username)
		if err != nil {
			log.Printf("Failed to send reminder for event %s: %v", event.ID, err)
			result.Errors++
			result.Results = append(result.Results, SweepItem{
				EventID:  event.ID,
				Username: event.Username,
				Error:    err.Error(),
			})
			continue
		}

		item := SweepItem{
			EventID:           event.ID,
			Username:          event.Username,
			Sent:              true,
			ProviderMessageID: messageID,
		}

		if err := s.recordReminder(event, reminderDate, message, messageID, now); err != nil {
			log.Printf("Failed to record reminder for event %s: %v", event.ID, err)
			result.Errors++
			item.Error = fmt.Sprintf("failed to record reminder: %v", err)
		}

		result.Sent++
		result.Results = append(result.Results, item)
	}

	return result, nil
}

// notifiableAccounts fetches the accounts behind the candidate events,
// filtered to those that opted into SMS and have a phone number on file
func (s *ReminderService) notifiableAccounts(events []models.ScheduleEvent) (map[string]models.Account, error) {
	seen := make(map[string]bool)
	var usernames []string
	for _, event := range events {
		if !seen[event.Username] {
			seen[event.Username] = true
			usernames = append(usernames, event.Username)
		}
	}

	var accounts []models.Account
	if err := s.db.
		Where("username IN ? AND sms_notifications_enabled = ? AND phone_number <> ''", usernames, true).
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	byUsername := make(map[string]models.Account, len(accounts))
	for _, account := range accounts {
		byUsername[account.Username] = account
	}
	return byUsername, nil
}

// hasReminderBeenSent checks the dedup log for this event and date
func (s *ReminderService) hasReminderBeenSent(eventID, reminderDate string) bool {
	var count int64
	s.db.Model(&models.ReminderSent{}).
		Where("event_id = ? AND reminder_date = ?", eventID, reminderDate).
		Count(&count)
	return count > 0
}

// recordReminder writes the dedup row. The conflict-ignore insert on the
// (event_id, reminder_date) unique index keeps overlapping sweeps from
// recording the same reminder twice.
func (s *ReminderService) recordReminder(event models.ScheduleEvent, reminderDate, message, messageID string, now time.Time) error {
	record := models.ReminderSent{
		EventID:           event.ID,
		ReminderDate:      reminderDate,
		Username:          event.Username,
		Message:           message,
		ProviderMessageID: messageID,
		SentAt:            now,
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "reminder_date"}},
		DoNothing: true,
	}).Create(&record)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("Reminder for event %s on %s was already recorded by a concurrent sweep", event.ID, reminderDate)
	}
	return nil
}

// BuildReminderMessage renders the outbound SMS text for a dose. The dose
// time is shown in the account's timezone, falling back to UTC when the
// stored zone name is empty or unknown.
func BuildReminderMessage(event models.ScheduleEvent, timezone string) string {
	name, usedDescription := medicationDisplayName(event.Medications, event.Description)

	message := fmt.Sprintf("Reminder: Take %s at %s", name, localDoseTime(event.DoseTime, timezone))
	if event.Description != "" && !usedDescription {
		message += "\n\nNote: " + event.Description
	}
	return message
}

// medicationDisplayName resolves the human-readable subject of the reminder.
// With no medications the dose description stands in for the name (and is
// then suppressed as a note); the last resort is "your medication".
func medicationDisplayName(medications []models.Medication, description string) (string, bool) {
	if len(medications) == 0 {
		if description != "" {
			return description, true
		}
		return "your medication", false
	}

	names := make([]string, len(medications))
	for i, m := range medications {
		names[i] = m.DisplayName()
	}

	switch len(names) {
	case 1:
		return names[0], false
	case 2:
		return names[0] + " and " + names[1], false
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1], false
	}
}

// localDoseTime converts a "HH:mm" UTC time-of-day into a 12-hour display
// string in the given IANA timezone
func localDoseTime(doseTimeUTC, timezone string) string {
	hour, minute, err := parseDoseTime(doseTimeUTC)
	if err != nil {
		return doseTimeUTC
	}

	loc := time.UTC
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			loc = parsed
		}
	}

	// Anchor on today's date so DST offsets resolve sensibly
	now := time.Now().UTC()
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	return t.In(loc).Format("3:04 PM")
}
