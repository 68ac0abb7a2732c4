package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"pillr/internal/config"
)

// SMSProvider is the outbound SMS capability used by the reminder dispatcher.
// Implementations do not retry: a failed send surfaces as an error and the
// next sweep naturally re-attempts while the dose is still in its window.
type SMSProvider interface {
	// SendSMS delivers one message to an E.164 phone number and returns the
	// vendor's message id.
	SendSMS(to, body, userID string) (string, error)
}

// NewSMSProvider resolves the configured provider kind into a concrete
// transport. Missing credentials for the http provider are a startup error,
// not a per-call error.
func NewSMSProvider(cfg config.SMSConfig) (SMSProvider, error) {
	switch cfg.Provider {
	case config.SMSProviderLog:
		return &NullSMSProvider{}, nil
	case config.SMSProviderHTTP:
		if cfg.APIKey == "" || cfg.AccountID == "" {
			return nil, fmt.Errorf("sms provider %q requires an API key and account id", cfg.Provider)
		}
		return &httpSMSProvider{
			apiKey:    cfg.APIKey,
			accountID: cfg.AccountID,
			baseURL:   cfg.BaseURL,
			client:    &http.Client{Timeout: 10 * time.Second},
		}, nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}

// NullSMSProvider logs outbound messages instead of sending them.
// Used for local development and tests.
type NullSMSProvider struct{}

// SendSMS logs the message and returns a synthesized message id
func (p *NullSMSProvider) SendSMS(to, body, userID string) (string, error) {
	log.Printf("SMS (log provider) to %s: %s", to, body)
	return fmt.Sprintf("log-%d", time.Now().UnixNano()), nil
}

// httpSMSProvider sends messages through the vendor's REST API
type httpSMSProvider struct {
	apiKey    string
	accountID string
	baseURL   string
	client    *http.Client
}

type smsContact struct {
	PhoneNumber string `json:"phone_number"`
}

type smsConversation struct {
	Contact smsContact `json:"contact"`
}

type smsRequest struct {
	Conversation smsConversation   `json:"conversation"`
	Body         string            `json:"body"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type smsResponse struct {
	ID string `json:"id"`
}

// SendSMS issues an authenticated POST to the vendor's messages endpoint
func (p *httpSMSProvider) SendSMS(to, body, userID string) (string, error) {
	payload := smsRequest{
		Conversation: smsConversation{Contact: smsContact{PhoneNumber: to}},
		Body:         body,
	}
	if userID != "" {
		payload.Metadata = map[string]string{"user_id": userID}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode sms request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/messages", p.baseURL, p.accountID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sms vendor returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode sms response: %w", err)
	}

	return result.ID, nil
}
