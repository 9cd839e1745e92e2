package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lis")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected development env by default")
	}
	if cfg.SessionDuration() != 480*time.Minute {
		t.Errorf("unexpected session duration %v", cfg.SessionDuration())
	}
	if cfg.OutboxPollInterval() != 30*time.Second {
		t.Errorf("unexpected outbox interval %v", cfg.OutboxPollInterval())
	}
}

func TestValidateSessionSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing session secret in production")
	}
	cfg.SessionSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short session secret")
	}
	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateSMTP(t *testing.T) {
	cfg := &Config{Env: "development", SMTPHost: "smtp.example.com"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for incomplete SMTP config")
	}
	cfg.SMTPUser = "lab"
	cfg.SMTPPassword = "secret"
	cfg.SMTPFrom = "lab@example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
