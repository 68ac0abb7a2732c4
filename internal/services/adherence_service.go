package services

import (
	"fmt"
	"time"

	"pillr/internal/models"

	"gorm.io/gorm"
)

// AdherenceService aggregates dose logs into adherence statistics for the
// dashboard and the weekly summary email
type AdherenceService struct {
	db *gorm.DB
}

func NewAdherenceService(db *gorm.DB) *AdherenceService {
	return &AdherenceService{db: db}
}

// Summarize computes adherence for a user between two dates (inclusive,
// "2006-01-02"). Expected counts come from the weekly schedule grid; taken,
// skipped and missed counts come from the dose log.
func (s *AdherenceService) Summarize(username, from, to string) (*models.AdherenceSummary, error) {
	fromDate, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	toDate, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("to date %q is before from date %q", to, from)
	}

	var events []models.ScheduleEvent
	if err := s.db.Where("username = ?", username).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	// Count how many scheduled doses fall on each day of the range
	perWeekday := make(map[int]int64)
	for _, event := range events {
		perWeekday[event.DayOfWeek]++
	}

	summary := &models.AdherenceSummary{From: from, To: to}
	for day := fromDate; !day.After(toDate); day = day.AddDate(0, 0, 1) {
		summary.Expected += perWeekday[SchemaWeekday(day)]
	}

	counts := []struct {
		Status models.DoseStatus
		Count  int64
	}{}
	err = s.db.Model(&models.DoseLog{}).
		Select("status, COUNT(*) as count").
		Where("username = ? AND recorded_at >= ? AND recorded_at < ?",
			username, fromDate, toDate.AddDate(0, 0, 1)).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dose logs: %w", err)
	}

	for _, row := range counts {
		switch row.Status {
		case models.DoseTaken:
			summary.Taken = row.Count
		case models.DoseSkipped:
			summary.Skipped = row.Count
		case models.DoseMissed:
			summary.Missed = row.Count
		}
	}

	if summary.Expected > 0 {
		summary.Rate = float64(summary.Taken) / float64(summary.Expected)
	}

	return summary, nil
}
