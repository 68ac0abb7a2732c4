package services

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ReminderWorker drives the reminder sweep on a fixed cadence. It is the
// in-process counterpart of the manual trigger endpoint; both invoke the same
// ReminderService so the eligibility logic cannot drift between the two.
type ReminderWorker struct {
	service  *ReminderService
	cron     *cron.Cron
	interval time.Duration
}

// NewReminderWorker creates a worker around the shared dispatcher
func NewReminderWorker(service *ReminderService, interval time.Duration) *ReminderWorker {
	return &ReminderWorker{
		service:  service,
		cron:     cron.New(),
		interval: interval,
	}
}

// Start registers the sweep job and starts the cron scheduler
func (w *ReminderWorker) Start() error {
	minutes := int(w.interval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	spec := fmt.Sprintf("*/%d * * * *", minutes)

	if _, err := w.cron.AddFunc(spec, w.sweep); err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	w.cron.Start()
	log.Printf("Reminder worker started, sweeping every %d minute(s)", minutes)
	return nil
}

// ScheduleWeeklySummaries registers the adherence digest job on the same
// scheduler, Monday mornings at 09:00 server time
func (w *ReminderWorker) ScheduleWeeklySummaries(summary *SummaryService) error {
	_, err := w.cron.AddFunc("0 9 * * 1", func() {
		sent, err := summary.SendWeeklySummaries(time.Now())
		if err != nil {
			log.Printf("Weekly summary run failed: %v", err)
			return
		}
		log.Printf("Weekly summary run complete: sent=%d", sent)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule weekly summaries: %w", err)
	}
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (w *ReminderWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	log.Println("Reminder worker stopped")
}

func (w *ReminderWorker) sweep() {
	result, err := w.service.RunReminderSweep(time.Now())
	if err != nil {
		log.Printf("Reminder sweep failed: %v", err)
		return
	}
	if result.Sent > 0 || result.Errors > 0 {
		log.Printf("Reminder sweep complete: sent=%d errors=%d", result.Sent, result.Errors)
	}
}
