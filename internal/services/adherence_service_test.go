package services

import (
	"testing"
	"time"

	"pillr/internal/models"
)

func TestSummarize(t *testing.T) {
	db := newTestDB(t)

	account := models.Account{
		Username: "carol",
		GoogleID: "google-carol",
		Email:    "carol@example.com",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	// Two doses on Monday, one on Wednesday
	events := []models.ScheduleEvent{
		{Username: "carol", DayOfWeek: 1, DoseTime: "08:00"},
		{Username: "carol", DayOfWeek: 1, DoseTime: "20:00"},
		{Username: "carol", DayOfWeek: 3, DoseTime: "08:00"},
	}
	for i := range events {
		if err := db.Create(&events[i]).Error; err != nil {
			t.Fatalf("failed to create schedule event: %v", err)
		}
	}

	// Mon 2026-01-05 .. Sun 2026-01-11: one Monday, one Wednesday
	logs := []models.DoseLog{
		{EventID: events[0].ID, Username: "carol", Status: models.DoseTaken, Source: models.SourceManual,
			RecordedAt: time.Date(2026, 1, 5, 8, 5, 0, 0, time.UTC)},
		{EventID: events[1].ID, Username: "carol", Status: models.DoseSkipped, Source: models.SourceManual,
			RecordedAt: time.Date(2026, 1, 5, 20, 10, 0, 0, time.UTC)},
		{EventID: events[2].ID, Username: "carol", Status: models.DoseTaken, Source: models.SourceDevice,
			RecordedAt: time.Date(2026, 1, 7, 8, 2, 0, 0, time.UTC)},
	}
	for i := range logs {
		if err := db.Create(&logs[i]).Error; err != nil {
			t.Fatalf("failed to create dose log: %v", err)
		}
	}

	service := NewAdherenceService(db)
	summary, err := service.Summarize("carol", "2026-01-05", "2026-01-11")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if summary.Expected != 3 {
		t.Errorf("Expected = %d, want 3", summary.Expected)
	}
	if summary.Taken != 2 {
		t.Errorf("Taken = %d, want 2", summary.Taken)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if summary.Missed != 0 {
		t.Errorf("Missed = %d, want 0", summary.Missed)
	}
	if want := float64(2) / 3; summary.Rate < want-0.001 || summary.Rate > want+0.001 {
		t.Errorf("Rate = %f, want %f", summary.Rate, want)
	}
}

func TestSummarizeEmptySchedule(t *testing.T) {
	db := newTestDB(t)

	service := NewAdherenceService(db)
	summary, err := service.Summarize("nobody", "2026-01-05", "2026-01-11")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary.Expected != 0 || summary.Rate != 0 {
		t.Errorf("empty schedule should yield zero expected and rate, got %+v", summary)
	}
}

func TestSummarizeRejectsBadRanges(t *testing.T) {
	db := newTestDB(t)
	service := NewAdherenceService(db)

	if _, err := service.Summarize("carol", "not-a-date", "2026-01-11"); err == nil {
		t.Error("expected error for malformed from date")
	}
	if _, err := service.Summarize("carol", "2026-01-11", "2026-01-05"); err == nil {
		t.Error("expected error for inverted range")
	}
}
