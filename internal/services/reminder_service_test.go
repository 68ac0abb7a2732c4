package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pillr/internal/config"
	"pillr/internal/database"
	"pillr/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mustTime parses an RFC3339 instant or fails the test
func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed
}

func TestSchemaWeekday(t *testing.T) {
	cases := []struct {
		instant string
		want    int
	}{
		{"2026-01-05T10:00:00Z", 1}, // Monday
		{"2026-01-07T10:00:00Z", 3}, // Wednesday
		{"2026-01-10T10:00:00Z", 6}, // Saturday
		{"2026-01-11T10:00:00Z", 7}, // Sunday
	}

	for _, tc := range cases {
		if got := SchemaWeekday(mustTime(t, tc.instant)); got != tc.want {
			t.Errorf("SchemaWeekday(%s) = %d, want %d", tc.instant, got, tc.want)
		}
	}
}

func TestShouldSendReminder(t *testing.T) {
	// Dose at 11:37 Monday with a 15 minute lead puts the ideal reminder at
	// 11:22, floored to the 11:20 sweep boundary. The window is [11:20, 11:25].
	cases := []struct {
		name     string
		doseTime string
		day      int
		now      string
		want     bool
	}{
		{"window start inclusive", "11:37", 1, "2026-01-05T11:20:00Z", true},
		{"ideal instant", "11:37", 1, "2026-01-05T11:22:00Z", true},
		{"window end inclusive", "11:37", 1, "2026-01-05T11:25:00Z", true},
		{"just before window", "11:37", 1, "2026-01-05T11:19:59Z", false},
		{"just after window", "11:37", 1, "2026-01-05T11:25:01Z", false},
		{"aligned dose time", "12:00", 1, "2026-01-05T11:45:00Z", true},
		{"aligned dose window end", "12:00", 1, "2026-01-05T11:50:00Z", true},
		{"wrong weekday", "11:37", 2, "2026-01-05T11:22:00Z", false},
		{"midnight dose", "00:05", 1, "2026-01-05T23:50:00Z", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ShouldSendReminder(tc.doseTime, tc.day, 15, mustTime(t, tc.now))
			if err != nil {
				t.Fatalf("ShouldSendReminder returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ShouldSendReminder(%s, day %d, now %s) = %v, want %v",
					tc.doseTime, tc.day, tc.now, got, tc.want)
			}
		})
	}
}

func TestShouldSendReminderMalformedDoseTime(t *testing.T) {
	for _, doseTime := range []string{"", "25:00", "11:60", "9:5", "noon"} {
		_, err := ShouldSendReminder(doseTime, 1, 15, mustTime(t, "2026-01-05T11:22:00Z"))
		if !errors.Is(err, ErrInvalidDoseTime) {
			t.Errorf("ShouldSendReminder(%q) error = %v, want ErrInvalidDoseTime", doseTime, err)
		}
	}
}

func TestBuildReminderMessage(t *testing.T) {
	med := func(name, brand, generic string) models.Medication {
		return models.Medication{Name: name, BrandName: brand, GenericName: generic}
	}

	cases := []struct {
		name  string
		event models.ScheduleEvent
		want  string
	}{
		{
			"brand name preferred",
			models.ScheduleEvent{
				DoseTime:    "14:30",
				Medications: []models.Medication{med("aspirin 81mg", "Bayer", "aspirin")},
			},
			"Reminder: Take Bayer at 2:30 PM",
		},
		{
			"generic name fallback",
			models.ScheduleEvent{
				DoseTime:    "14:30",
				Medications: []models.Medication{med("lipitor", "", "atorvastatin")},
			},
			"Reminder: Take atorvastatin at 2:30 PM",
		},
		{
			"two medications",
			models.ScheduleEvent{
				DoseTime: "08:00",
				Medications: []models.Medication{
					med("Aspirin", "", ""),
					med("Metformin", "", ""),
				},
			},
			"Reminder: Take Aspirin and Metformin at 8:00 AM",
		},
		{
			"three medications use oxford comma",
			models.ScheduleEvent{
				DoseTime: "08:00",
				Medications: []models.Medication{
					med("Aspirin", "", ""),
					med("Metformin", "", ""),
					med("Lisinopril", "", ""),
				},
			},
			"Reminder: Take Aspirin, Metformin, and Lisinopril at 8:00 AM",
		},
		{
			"description appended as note",
			models.ScheduleEvent{
				DoseTime:    "08:00",
				Description: "Take with food",
				Medications: []models.Medication{med("Aspirin", "", "")},
			},
			"Reminder: Take Aspirin at 8:00 AM\n\nNote: Take with food",
		},
		{
			"no medications promotes description",
			models.ScheduleEvent{
				DoseTime:    "08:00",
				Description: "Morning vitamins",
			},
			"Reminder: Take Morning vitamins at 8:00 AM",
		},
		{
			"nothing to name",
			models.ScheduleEvent{DoseTime: "08:00"},
			"Reminder: Take your medication at 8:00 AM",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildReminderMessage(tc.event, "UTC"); got != tc.want {
				t.Errorf("BuildReminderMessage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildReminderMessageUnknownTimezoneFallsBackToUTC(t *testing.T) {
	event := models.ScheduleEvent{
		DoseTime:    "14:30",
		Medications: []models.Medication{{Name: "Aspirin"}},
	}

	got := BuildReminderMessage(event, "Not/AZone")
	if !strings.Contains(got, "2:30 PM") {
		t.Errorf("expected UTC fallback time in %q", got)
	}
}

// fakeSMSProvider records sends and can be told to fail
type fakeSMSProvider struct {
	sent []fakeSMS
	err  error
}

type fakeSMS struct {
	To     string
	Body   string
	UserID string
}

func (f *fakeSMSProvider) SendSMS(to, body, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, fakeSMS{To: to, Body: body, UserID: userID})
	return fmt.Sprintf("msg_%d", len(f.sent)), nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedReminderFixture(t *testing.T, db *gorm.DB) models.ScheduleEvent {
	t.Helper()
	account := models.Account{
		Username:                "alice",
		GoogleID:                "google-alice",
		Email:                   "alice@example.com",
		Role:                    "patient",
		PhoneNumber:             "+15551230001",
		SMSNotificationsEnabled: true,
		Timezone:                "UTC",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	event := models.ScheduleEvent{
		Username:  "alice",
		DayOfWeek: 1,
		DoseTime:  "11:37",
		Medications: []models.Medication{
			{Username: "alice", Name: "aspirin", BrandName: "Bayer"},
		},
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create schedule event: %v", err)
	}
	return event
}

func TestRunReminderSweepSendsAndRecords(t *testing.T) {
	db := newTestDB(t)
	event := seedReminderFixture(t, db)

	sms := &fakeSMSProvider{}
	service := NewReminderService(db, sms, config.ReminderConfig{LeadMinutes: 15})

	// Monday 11:22 UTC, inside the [11:20, 11:25] window for an 11:37 dose
	now := mustTime(t, "2026-01-05T11:22:00Z")
	result, err := service.RunReminderSweep(now)
	if err != nil {
		t.Fatalf("RunReminderSweep returned error: %v", err)
	}

	if result.Sent != 1 || result.Errors != 0 {
		t.Fatalf("got sent=%d errors=%d, want sent=1 errors=0", result.Sent, result.Errors)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("expected 1 SMS, got %d", len(sms.sent))
	}
	if sms.sent[0].To != "+15551230001" {
		t.Errorf("SMS sent to %q, want +15551230001", sms.sent[0].To)
	}
	if want := "Reminder: Take Bayer at 11:37 AM"; sms.sent[0].Body != want {
		t.Errorf("SMS body = %q, want %q", sms.sent[0].Body, want)
	}

	var record models.ReminderSent
	if err := db.Where("event_id = ? AND reminder_date = ?", event.ID, "2026-01-05").
		First(&record).Error; err != nil {
		t.Fatalf("expected a reminder_sent row: %v", err)
	}
	if record.ProviderMessageID != "msg_1" {
		t.Errorf("recorded provider message id %q, want msg_1", record.ProviderMessageID)
	}
}

func TestRunReminderSweepIsIdempotentPerDay(t *testing.T) {
	db := newTestDB(t)
	seedReminderFixture(t, db)

	sms := &fakeSMSProvider{}
	service := NewReminderService(db, sms, config.ReminderConfig{LeadMinutes: 15})

	now := mustTime(t, "2026-01-05T11:22:00Z")
	if _, err := service.RunReminderSweep(now); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	// A later sweep in the same window must not re-send
	result, err := service.RunReminderSweep(now.Add(2 * time.Minute))
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if result.Sent != 0 {
		t.Errorf("second sweep sent %d reminders, want 0", result.Sent)
	}
	if len(sms.sent) != 1 {
		t.Errorf("expected exactly 1 SMS across both sweeps, got %d", len(sms.sent))
	}

	// The following week the same event is eligible again
	nextWeek := mustTime(t, "2026-01-12T11:22:00Z")
	result, err = service.RunReminderSweep(nextWeek)
	if err != nil {
		t.Fatalf("next week sweep failed: %v", err)
	}
	if result.Sent != 1 {
		t.Errorf("next week sweep sent %d reminders, want 1", result.Sent)
	}
}

func TestRunReminderSweepVendorFailureRecordsNothing(t *testing.T) {
	db := newTestDB(t)
	event := seedReminderFixture(t, db)

	sms := &fakeSMSProvider{err: errors.New("vendor returned 500")}
	service := NewReminderService(db, sms, config.ReminderConfig{LeadMinutes: 15})

	now := mustTime(t, "2026-01-05T11:22:00Z")
	result, err := service.RunReminderSweep(now)
	if err != nil {
		t.Fatalf("RunReminderSweep returned error: %v", err)
	}

	if result.Sent != 0 || result.Errors != 1 {
		t.Fatalf("got sent=%d errors=%d, want sent=0 errors=1", result.Sent, result.Errors)
	}
	if len(result.Results) != 1 || result.Results[0].Error == "" {
		t.Fatalf("expected one failed result item, got %+v", result.Results)
	}

	// No dedup row means the next sweep can retry while the window is open
	var count int64
	db.Model(&models.ReminderSent{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no reminder_sent rows after vendor failure, got %d", count)
	}
}

func TestRunReminderSweepSkipsOptedOutAccounts(t *testing.T) {
	db := newTestDB(t)

	account := models.Account{
		Username:                "bob",
		GoogleID:                "google-bob",
		Email:                   "bob@example.com",
		Role:                    "patient",
		PhoneNumber:             "+15551230002",
		SMSNotificationsEnabled: false,
		Timezone:                "UTC",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	event := models.ScheduleEvent{Username: "bob", DayOfWeek: 1, DoseTime: "11:37"}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create schedule event: %v", err)
	}

	sms := &fakeSMSProvider{}
	service := NewReminderService(db, sms, config.ReminderConfig{LeadMinutes: 15})

	result, err := service.RunReminderSweep(mustTime(t, "2026-01-05T11:22:00Z"))
	if err != nil {
		t.Fatalf("RunReminderSweep returned error: %v", err)
	}
	if result.Sent != 0 || result.Errors != 0 || len(sms.sent) != 0 {
		t.Errorf("opted-out account got a reminder: %+v", result)
	}
}

func TestRunReminderSweepBadDoseTimeIsIsolated(t *testing.T) {
	db := newTestDB(t)
	seedReminderFixture(t, db)

	// Second event for the same user with a corrupt dose time
	bad := models.ScheduleEvent{Username: "alice", DayOfWeek: 1, DoseTime: "nope!"}
	if err := db.Create(&bad).Error; err != nil {
		t.Fatalf("failed to create schedule event: %v", err)
	}

	sms := &fakeSMSProvider{}
	service := NewReminderService(db, sms, config.ReminderConfig{LeadMinutes: 15})

	result, err := service.RunReminderSweep(mustTime(t, "2026-01-05T11:22:00Z"))
	if err != nil {
		t.Fatalf("RunReminderSweep returned error: %v", err)
	}

	// The healthy dose still goes out despite the corrupt one
	if result.Sent != 1 || result.Errors != 1 {
		t.Errorf("got sent=%d errors=%d, want sent=1 errors=1", result.Sent, result.Errors)
	}
}
