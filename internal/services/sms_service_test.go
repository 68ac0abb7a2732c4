package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pillr/internal/config"
)

func TestNewSMSProvider(t *testing.T) {
	t.Run("log provider", func(t *testing.T) {
		provider, err := NewSMSProvider(config.SMSConfig{Provider: config.SMSProviderLog})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := provider.(*NullSMSProvider); !ok {
			t.Errorf("expected NullSMSProvider, got %T", provider)
		}
	})

	t.Run("http provider requires credentials", func(t *testing.T) {
		_, err := NewSMSProvider(config.SMSConfig{Provider: config.SMSProviderHTTP})
		if err == nil {
			t.Fatal("expected error for missing credentials")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewSMSProvider(config.SMSConfig{Provider: "carrier-pigeon"})
		if err == nil {
			t.Fatal("expected error for unknown provider")
		}
	})
}

func TestNullSMSProviderReturnsMessageID(t *testing.T) {
	provider := &NullSMSProvider{}
	id, err := provider.SendSMS("+15551230001", "hello", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(id, "log-") {
		t.Errorf("message id %q does not look synthesized", id)
	}
}

func TestHTTPSMSProviderSendSMS(t *testing.T) {
	var captured struct {
		path    string
		auth    string
		payload smsRequest
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.payload); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "msg_123"})
	}))
	defer server.Close()

	provider, err := NewSMSProvider(config.SMSConfig{
		Provider:  config.SMSProviderHTTP,
		APIKey:    "test-key",
		AccountID: "acct_1",
		BaseURL:   server.URL,
	})
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}

	id, err := provider.SendSMS("+15551230001", "Reminder: Take Bayer at 11:37 AM", "alice")
	if err != nil {
		t.Fatalf("SendSMS returned error: %v", err)
	}
	if id != "msg_123" {
		t.Errorf("message id = %q, want msg_123", id)
	}
	if captured.path != "/accounts/acct_1/messages" {
		t.Errorf("request path = %q, want /accounts/acct_1/messages", captured.path)
	}
	if captured.auth != "Bearer test-key" {
		t.Errorf("auth header = %q, want Bearer test-key", captured.auth)
	}
	if captured.payload.Conversation.Contact.PhoneNumber != "+15551230001" {
		t.Errorf("phone number = %q", captured.payload.Conversation.Contact.PhoneNumber)
	}
	if captured.payload.Body != "Reminder: Take Bayer at 11:37 AM" {
		t.Errorf("body = %q", captured.payload.Body)
	}
	if captured.payload.Metadata["user_id"] != "alice" {
		t.Errorf("metadata = %v, want user_id=alice", captured.payload.Metadata)
	}
}

func TestHTTPSMSProviderVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream carrier unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewSMSProvider(config.SMSConfig{
		Provider:  config.SMSProviderHTTP,
		APIKey:    "test-key",
		AccountID: "acct_1",
		BaseURL:   server.URL,
	})
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}

	_, err = provider.SendSMS("+15551230001", "hello", "alice")
	if err == nil {
		t.Fatal("expected error for a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q should mention the status code", err)
	}
}

func TestHTTPSMSProviderBadResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	provider, err := NewSMSProvider(config.SMSConfig{
		Provider:  config.SMSProviderHTTP,
		APIKey:    "test-key",
		AccountID: "acct_1",
		BaseURL:   server.URL,
	})
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}

	if _, err := provider.SendSMS("+15551230001", "hello", "alice"); err == nil {
		t.Fatal("expected error for unparseable response body")
	}
}
