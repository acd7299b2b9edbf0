package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.OTP.TTL != 5*time.Minute {
		t.Fatalf("expected default otp ttl 5m, got %v", cfg.OTP.TTL)
	}
	if cfg.OTP.Cooldown != 60*time.Second {
		t.Fatalf("expected default cooldown 60s, got %v", cfg.OTP.Cooldown)
	}
	if cfg.OTP.MaxAttempts != 3 {
		t.Fatalf("expected default max attempts 3, got %d", cfg.OTP.MaxAttempts)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl 15m, got %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("expected default refresh ttl 168h, got %v", cfg.JWT.RefreshTTL)
	}
	if cfg.JWT.KeyID != "auth-key-1" {
		t.Fatalf("expected default key id auth-key-1, got %q", cfg.JWT.KeyID)
	}
	if cfg.Redis.OTPPrefix != "otp:" || cfg.Redis.CooldownPrefix != "cooldown:" {
		t.Fatalf("unexpected default redis prefixes: %q %q", cfg.Redis.OTPPrefix, cfg.Redis.CooldownPrefix)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.OTP.MaxAttempts != 5 {
		t.Fatalf("expected max attempts override 5, got %d", cfg.OTP.MaxAttempts)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("expected port override 9090, got %q", cfg.App.Port)
	}
}
