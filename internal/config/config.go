package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// SMSProviderKind selects the concrete SMS transport at startup
type SMSProviderKind string

const (
	SMSProviderLog  SMSProviderKind = "log"  // log-only stub for local development
	SMSProviderHTTP SMSProviderKind = "http" // the real messaging vendor
)

// SMSConfig holds the messaging vendor credentials. It is validated once at
// startup and injected into the transport constructor; nothing else reads the
// SMS environment variables.
type SMSConfig struct {
	Provider  SMSProviderKind
	APIKey    string
	AccountID string
	BaseURL   string
}

// ReminderConfig holds the dispatch settings for the reminder sweep
type ReminderConfig struct {
	// Secret required in the Authorization header of the manual trigger
	// endpoint.
	TriggerSecret string
	// LeadMinutes is how long before the dose time the reminder should fire.
	LeadMinutes int
	// SweepInterval is the cadence of the in-process cron sweep. The
	// evaluator's window width matches this value.
	SweepInterval time.Duration
}

// Config is the process-wide application configuration
type Config struct {
	Port         string
	SMS          SMSConfig
	Reminder     ReminderConfig
	DrugLabelURL string
}

const (
	defaultDrugLabelURL = "https://api.fda.gov/drug/label.json"
	defaultSMSBaseURL   = "https://api.whippy.co/v1"
)

// Load reads and validates configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		SMS: SMSConfig{
			Provider:  SMSProviderKind(getEnv("SMS_PROVIDER", string(SMSProviderLog))),
			APIKey:    os.Getenv("SMS_API_KEY"),
			AccountID: os.Getenv("SMS_ACCOUNT_ID"),
			BaseURL:   getEnv("SMS_API_BASE_URL", defaultSMSBaseURL),
		},
		Reminder: ReminderConfig{
			TriggerSecret: os.Getenv("REMINDER_TRIGGER_SECRET"),
			LeadMinutes:   getEnvInt("REMINDER_LEAD_MINUTES", 15),
			SweepInterval: time.Minute * 5,
		},
		DrugLabelURL: getEnv("DRUG_LABEL_API_URL", defaultDrugLabelURL),
	}

	switch cfg.SMS.Provider {
	case SMSProviderLog:
	case SMSProviderHTTP:
		if cfg.SMS.APIKey == "" || cfg.SMS.AccountID == "" {
			return nil, fmt.Errorf("SMS_API_KEY and SMS_ACCOUNT_ID must be set when SMS_PROVIDER=http")
		}
	default:
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", cfg.SMS.Provider)
	}

	if cfg.Reminder.TriggerSecret == "" {
		return nil, fmt.Errorf("REMINDER_TRIGGER_SECRET must be set")
	}
	if cfg.Reminder.LeadMinutes <= 0 {
		return nil, fmt.Errorf("REMINDER_LEAD_MINUTES must be positive")
	}

	return cfg, nil
}

// getEnv returns the environment variable value or a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvInt returns the environment variable parsed as int or a fallback
func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
