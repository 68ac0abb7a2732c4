package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REMINDER_TRIGGER_SECRET", "sweep-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SMS.Provider != SMSProviderLog {
		t.Errorf("SMS provider = %q, want log", cfg.SMS.Provider)
	}
	if cfg.Reminder.LeadMinutes != 15 {
		t.Errorf("LeadMinutes = %d, want 15", cfg.Reminder.LeadMinutes)
	}
	if cfg.Reminder.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %v, want 5m", cfg.Reminder.SweepInterval)
	}
	if cfg.DrugLabelURL != defaultDrugLabelURL {
		t.Errorf("DrugLabelURL = %q", cfg.DrugLabelURL)
	}
}

func TestLoadHTTPProviderRequiresCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMS_PROVIDER", "http")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when http provider has no credentials")
	}

	t.Setenv("SMS_API_KEY", "key")
	t.Setenv("SMS_ACCOUNT_ID", "acct_1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SMS.Provider != SMSProviderHTTP {
		t.Errorf("SMS provider = %q, want http", cfg.SMS.Provider)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMS_PROVIDER", "smoke-signals")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown SMS provider")
	}
}

func TestLoadRequiresTriggerSecret(t *testing.T) {
	t.Setenv("REMINDER_TRIGGER_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without REMINDER_TRIGGER_SECRET")
	}
}

func TestLoadRejectsNonPositiveLead(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REMINDER_LEAD_MINUTES", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative lead minutes")
	}
}
