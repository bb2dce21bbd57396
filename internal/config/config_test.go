package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.PublicMode {
		t.Error("Expected full mode by default")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Unexpected default session TTL: %v", cfg.SessionTTL)
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode with no frontend URL")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PUBLIC_MODE", "true")
	t.Setenv("RATE_LIMIT_MAX", "2")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.PublicMode {
		t.Error("Expected public mode")
	}
	if cfg.RateLimitMax != 2 {
		t.Errorf("Expected rate limit 2, got %d", cfg.RateLimitMax)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("Expected 5m session TTL, got %v", cfg.SessionTTL)
	}
	if cfg.RateLimitWindow != time.Hour {
		t.Errorf("Expected fallback window on bad value, got %v", cfg.RateLimitWindow)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := &Config{Port: "8080", DBPath: "db", SessionTTL: time.Minute, ResultTTL: time.Minute, RateLimitMax: 0, RateLimitWindow: time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected zero rate limit rejected")
	}
	cfg.RateLimitMax = 1
	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected empty DB path rejected")
	}
}
