package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the application configuration
type Config struct {
	WhatsAppDataDir     string        `env:"WHATSAPP_DATA_DIR" envDefault:"data"`
	DatabaseDriver      string        `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	DatabaseURL         string        `env:"DATABASE_URL" envDefault:"file:data/bookings.db?_foreign_keys=on"`
	CalendarBackend     string        `env:"CALENDAR_BACKEND" envDefault:"google"`
	CalendarID          string        `env:"GOOGLE_CALENDAR_ID"`
	CredentialsFile     string        `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	Timezone            string        `env:"BUSINESS_TIMEZONE" envDefault:"America/Sao_Paulo"`
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT" envDefault:"10s"`
	SessionIdleTTL      time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables and validates it
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.CalendarBackend {
	case "google", "memory":
	default:
		return fmt.Errorf("CALENDAR_BACKEND must be google or memory, got %q", c.CalendarBackend)
	}
	switch c.DatabaseDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite3 or pgx, got %q", c.DatabaseDriver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("BUSINESS_TIMEZONE is invalid: %w", err)
	}
	if c.CollaboratorTimeout <= 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT must be positive, got %s", c.CollaboratorTimeout)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	fields := []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "WHATSAPP_DATA_DIR", value: c.WhatsAppDataDir},
	}
	if c.CalendarBackend == "google" {
		fields = append(fields,
			requiredEnvField{name: "GOOGLE_CALENDAR_ID", value: c.CalendarID},
			requiredEnvField{name: "GOOGLE_APPLICATION_CREDENTIALS", value: c.CredentialsFile},
		)
	}
	return fields
}

// Location returns the business time zone. Call only after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Level returns the configured zerolog level
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
