package services

import (
	"fmt"
	"log"
	"time"

	"pillr/internal/models"

	"gorm.io/gorm"
)

// SummaryService mails the weekly adherence digest to patients who have at
// least one scheduled dose
type SummaryService struct {
	db        *gorm.DB
	adherence *AdherenceService
	email     *EmailService
}

func NewSummaryService(db *gorm.DB, adherence *AdherenceService, email *EmailService) *SummaryService {
	return &SummaryService{
		db:        db,
		adherence: adherence,
		email:     email,
	}
}

// SendWeeklySummaries computes the last seven days of adherence for every
// patient with a schedule and emails the digest. Per-patient failures are
// logged and do not stop the run.
func (s *SummaryService) SendWeeklySummaries(now time.Time) (int, error) {
	now = now.UTC()
	from := now.AddDate(0, 0, -6).Format("2006-01-02")
	to := now.Format("2006-01-02")

	var accounts []models.Account
	err := s.db.
		Where("role = ? AND username IN (?)", models.RolePatient,
			s.db.Model(&models.ScheduleEvent{}).Distinct("username")).
		Find(&accounts).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch patients for weekly summary: %w", err)
	}

	sent := 0
	for _, account := range accounts {
		summary, err := s.adherence.Summarize(account.Username, from, to)
		if err != nil {
			log.Printf("Failed to compute weekly summary for %s: %v", account.Username, err)
			continue
		}
		if summary.Expected == 0 {
			continue
		}

		if err := s.email.SendAdherenceSummaryEmail(account, *summary); err != nil {
			log.Printf("Failed to email weekly summary to %s: %v", account.Username, err)
			continue
		}
		sent++
	}

	return sent, nil
}
