package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func validConfig() *Config {
	return &Config{
		WhatsAppDataDir:     "data",
		DatabaseDriver:      "sqlite3",
		DatabaseURL:         "file:data/bookings.db",
		CalendarBackend:     "google",
		CalendarID:          "shop@group.calendar.google.com",
		CredentialsFile:     "/secrets/key.json",
		Timezone:            "America/Sao_Paulo",
		CollaboratorTimeout: 10 * time.Second,
		SessionIdleTTL:      30 * time.Minute,
		LogLevel:            "info",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing calendar", func(c *Config) { c.CalendarID = "" }},
		{"missing credentials", func(c *Config) { c.CredentialsFile = "" }},
		{"unknown backend", func(c *Config) { c.CalendarBackend = "outlook" }},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"zero timeout", func(c *Config) { c.CollaboratorTimeout = 0 }},
		{"negative ttl", func(c *Config) { c.SessionIdleTTL = -time.Second }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidate_MemoryCalendarNeedsNoCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.CalendarBackend = "memory"
	cfg.CalendarID = ""
	cfg.CredentialsFile = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_CALENDAR_ID", "cal-1")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/key.json")
	t.Setenv("COLLABORATOR_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CalendarID != "cal-1" {
		t.Errorf("CalendarID = %q", cfg.CalendarID)
	}
	if cfg.CollaboratorTimeout != 3*time.Second {
		t.Errorf("CollaboratorTimeout = %s", cfg.CollaboratorTimeout)
	}
	if cfg.DatabaseDriver != "sqlite3" {
		t.Errorf("DatabaseDriver default = %q", cfg.DatabaseDriver)
	}
	if cfg.Location().String() != "America/Sao_Paulo" {
		t.Errorf("Location = %s", cfg.Location())
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("Level = %s", cfg.Level())
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("GOOGLE_CALENDAR_ID", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when calendar settings are missing")
	}
}
