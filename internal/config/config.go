// internal/config/config.go
//
// Environment-driven server configuration. Every setting has a default so
// the server starts with an empty environment (SQLite, embedded puzzles).

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds application configuration.
type Config struct {
	Port     string
	LogLevel string

	DatabaseType string // sqlite | postgres | mysql
	DatabasePath string // sqlite only
	DatabaseURL  string // postgres / mysql

	PuzzlesDir  string // empty = embedded puzzles
	PuzzleEpoch time.Time
	DailySalt   string
	ShareLink   string

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	AnonCookieName string
	SecureCookies  bool
	ClientOrigin   string

	SessionIdleTTL  time.Duration
	TelemetryBuffer int
}

const dateLayout = "2006-01-02"

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "5175"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseType: strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath: getEnv("DB_PATH", "./data/pano.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		PuzzlesDir:  os.Getenv("PUZZLES_DIR"),
		PuzzleEpoch: envDate("PUZZLE_EPOCH", "2025-01-01"),
		DailySalt:   getEnv("DAILY_SALT", "local_dev_salt"),
		ShareLink:   getEnv("SHARE_LINK", "https://geonections.com/pano"),

		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "pano_token"),
		AnonCookieName: getEnv("ANON_COOKIE_NAME", "pano_anon"),
		SecureCookies:  os.Getenv("NODE_ENV") == "production",
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		SessionIdleTTL:  envDuration("SESSION_IDLE_TTL", 6*time.Hour),
		TelemetryBuffer: envInt("TELEMETRY_BUFFER", 256),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("not a duration, using default")
		return def
	}
	return d
}

func envDate(k, def string) time.Time {
	v := getEnv(k, def)
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not a YYYY-MM-DD date, using default")
		t, _ = time.Parse(dateLayout, def)
	}
	return t.UTC()
}
