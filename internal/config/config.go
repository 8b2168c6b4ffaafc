// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, timeouts, and bot behavior.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	domerrors "github.com/chiahsuan/eatwhat-linebot-go/internal/errors"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Data directory for SQLite database

	// Bot Configuration (embedded)
	Bot BotConfig

	// Observability
	SentryDSN           string
	SentryEnvironment   string
	BetterStackToken    string
	BetterStackEndpoint string
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	// WebhookTimeout bounds processing of a single webhook event.
	WebhookTimeout time.Duration

	// Timezone is the IANA zone used to decide "today" for closed-day
	// filtering (default: Asia/Taipei).
	Timezone string

	// SamplerMaxAttempts bounds the accept/reject recommendation loop.
	// Without it a candidate set with only non-positive rates never
	// terminates.
	SamplerMaxAttempts int

	// LINE API Constraints
	MaxEventsPerWebhook int // Maximum events per webhook (default: 100)
	MinReplyTokenLength int // Minimum reply token length (default: 10)

	// Business Limits
	MaxShopNameLength int // Maximum shop name length in runes (default: 30)
	NamePreviewLength int // Truncated preview length on rejection (default: 15)
	MaxEventsInFlight int // Concurrent event processing limit (default: 4)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LINE Bot Configuration
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		// Server Configuration
		Port:            getEnv("PORT", "3000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Data Configuration
		DataDir: getEnv("DATA_DIR", getDefaultDataDir()),

		// Bot Configuration
		Bot: BotConfig{
			WebhookTimeout:      getDurationEnv("WEBHOOK_TIMEOUT", 30*time.Second),
			Timezone:            getEnv("TIMEZONE", "Asia/Taipei"),
			SamplerMaxAttempts:  getIntEnv("SAMPLER_MAX_ATTEMPTS", 100),
			MaxEventsPerWebhook: getIntEnv("MAX_EVENTS_PER_WEBHOOK", 100),
			MinReplyTokenLength: getIntEnv("MIN_REPLY_TOKEN_LENGTH", 10),
			MaxShopNameLength:   30,
			NamePreviewLength:   15,
			MaxEventsInFlight:   getIntEnv("MAX_EVENTS_IN_FLIGHT", 4),
		},

		// Observability
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		SentryEnvironment:   getEnv("SENTRY_ENVIRONMENT", "production"),
		BetterStackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, domerrors.NewValidationError("LINE_CHANNEL_ACCESS_TOKEN", "is required"))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, domerrors.NewValidationError("LINE_CHANNEL_SECRET", "is required"))
	}
	if c.Port == "" {
		errs = append(errs, domerrors.NewValidationError("PORT", "is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, domerrors.NewValidationError("DATA_DIR", "is required"))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks bot configuration bounds
func (c *BotConfig) Validate() error {
	var errs []error

	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %v", c.WebhookTimeout))
	}
	if c.SamplerMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("SAMPLER_MAX_ATTEMPTS must be positive, got %d", c.SamplerMaxAttempts))
	}
	if c.MaxEventsPerWebhook <= 0 {
		errs = append(errs, fmt.Errorf("MAX_EVENTS_PER_WEBHOOK must be positive, got %d", c.MaxEventsPerWebhook))
	}
	if c.MaxEventsInFlight <= 0 {
		errs = append(errs, fmt.Errorf("MAX_EVENTS_IN_FLIGHT must be positive, got %d", c.MaxEventsInFlight))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE is invalid: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Location resolves the configured timezone.
// Returns UTC if the zone cannot be loaded; Load rejects invalid zones.
func (c *BotConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "shops.db")
}
