package services

import (
	"fmt"
	"log"
	"os"

	"pillr/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	enabled   bool
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	if apiKey == "" {
		log.Println("SENDGRID_API_KEY not set, outbound email disabled")
	}

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   apiKey != "",
	}
}

// SendConnectionCodeEmail mails a connection code to a caregiver the patient
// wants to link with
func (s *EmailService) SendConnectionCodeEmail(caregiverEmail, patientName, code string) error {
	if !s.enabled {
		return nil
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(caregiverEmail, caregiverEmail)
	subject := fmt.Sprintf("%s invited you to Pillr", patientName)
	plainContent := fmt.Sprintf("%s wants you to follow their medication schedule on Pillr. Enter the code %s within 15 minutes to connect.", patientName, code)
	htmlContent := fmt.Sprintf("<p>%s wants you to follow their medication schedule on Pillr.</p><p>Enter the code <strong>%s</strong> within 15 minutes to connect.</p>", patientName, code)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send invite email to %s: %d", caregiverEmail, response.StatusCode)
	}
	return nil
}

// SendCaregiverLinkedEmail notifies the patient that a caregiver connected
func (s *EmailService) SendCaregiverLinkedEmail(patientEmail, patientName, caregiverName string) error {
	if !s.enabled {
		return nil
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(patientName, patientEmail)
	subject := fmt.Sprintf("%s is now following your schedule", caregiverName)
	plainContent := fmt.Sprintf("%s redeemed your connection code and can now see your medication schedule and adherence.", caregiverName)
	htmlContent := fmt.Sprintf("<p><strong>%s</strong> redeemed your connection code and can now see your medication schedule and adherence.</p>", caregiverName)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	_, err := s.client.Send(message)
	return err
}

// SendAdherenceSummaryEmail mails a weekly adherence digest
func (s *EmailService) SendAdherenceSummaryEmail(account models.Account, summary models.AdherenceSummary) error {
	if !s.enabled {
		return nil
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(account.FullName, account.Email)
	subject := "Your weekly Pillr adherence summary"

	plainContent := fmt.Sprintf("Hello %s, between %s and %s you took %d of %d scheduled doses (%.0f%%). Keep it up!",
		account.FullName, summary.From, summary.To, summary.Taken, summary.Expected, summary.Rate*100)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Between %s and %s you took <strong>%d of %d</strong> scheduled doses (%.0f%%).</p><p>Keep it up!</p>",
		account.FullName, summary.From, summary.To, summary.Taken, summary.Expected, summary.Rate*100)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send summary email to %s: %d", account.Email, response.StatusCode)
	}
	return nil
}
