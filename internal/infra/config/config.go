package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	HTTPAddr    string
	AdminToken  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string

	LogLevel    string
	Environment string

	// CronSpecPopulate runs shortly before midnight UTC so the next day's
	// queue exists before any timezone's local midnight arrives.
	CronSpecPopulate string
	CronSpecDispatch string
	CronSpecSweep    string

	// DispatchCatchUp is how late a pending entry may still be sent before
	// the dispatcher fails it instead.
	DispatchCatchUp time.Duration
	SendTimeout     time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	if cfg.TwilioAccountSID == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID is not set")
	}
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	if cfg.TwilioAuthToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN is not set")
	}
	cfg.TwilioFromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	if cfg.TwilioFromNumber == "" {
		return nil, fmt.Errorf("TWILIO_FROM_NUMBER is not set")
	}
	cfg.TwilioBaseURL = os.Getenv("TWILIO_BASE_URL")
	if cfg.TwilioBaseURL == "" {
		cfg.TwilioBaseURL = "https://api.twilio.com"
	}

	cfg.AdminToken = os.Getenv("ADMIN_API_TOKEN")
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_API_TOKEN is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecPopulate = os.Getenv("CRON_SPEC_POPULATE")
	if cfg.CronSpecPopulate == "" {
		cfg.CronSpecPopulate = "40 23 * * *" // Default: 23:40 UTC daily
	}
	cfg.CronSpecDispatch = os.Getenv("CRON_SPEC_DISPATCH")
	if cfg.CronSpecDispatch == "" {
		cfg.CronSpecDispatch = "* * * * *" // Default: every minute
	}
	cfg.CronSpecSweep = os.Getenv("CRON_SPEC_SWEEP")
	if cfg.CronSpecSweep == "" {
		cfg.CronSpecSweep = "15 * * * *" // Default: hourly at :15
	}

	catchUpHours, err := intFromEnv("DISPATCH_CATCHUP_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.DispatchCatchUp = time.Duration(catchUpHours) * time.Hour

	sendTimeoutSecs, err := intFromEnv("SEND_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	cfg.SendTimeout = time.Duration(sendTimeoutSecs) * time.Second

	return cfg, nil
}

func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}
