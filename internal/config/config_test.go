package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_TYPE", "PUZZLE_EPOCH", "JWT_EXPIRES_DAYS", "SESSION_IDLE_TTL", "COOKIE_NAME"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "5175" || cfg.DatabaseType != "sqlite" || cfg.CookieName != "pano_token" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.PuzzleEpoch.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("epoch = %v", cfg.PuzzleEpoch)
	}
	if cfg.JWTExpiresDays != 14 || cfg.SessionIdleTTL != 6*time.Hour {
		t.Fatalf("days=%d ttl=%v", cfg.JWTExpiresDays, cfg.SessionIdleTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{"db type is lowercased", "DB_TYPE", "Postgres", func(c *Config) bool { return c.DatabaseType == "postgres" }},
		{"epoch", "PUZZLE_EPOCH", "2024-06-30", func(c *Config) bool { return c.PuzzleEpoch.Day() == 30 }},
		{"bad epoch falls back", "PUZZLE_EPOCH", "yesterday", func(c *Config) bool { return c.PuzzleEpoch.Year() == 2025 }},
		{"ttl", "SESSION_IDLE_TTL", "45m", func(c *Config) bool { return c.SessionIdleTTL == 45*time.Minute }},
		{"bad ttl falls back", "SESSION_IDLE_TTL", "-1s", func(c *Config) bool { return c.SessionIdleTTL == 6*time.Hour }},
		{"bad int falls back", "TELEMETRY_BUFFER", "lots", func(c *Config) bool { return c.TelemetryBuffer == 256 }},
		{"production cookies", "NODE_ENV", "production", func(c *Config) bool { return c.SecureCookies }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if cfg := Load(); !tt.check(cfg) {
				t.Fatalf("%s=%q not applied: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}
