// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// DefaultRemoteURL is the public mapsync trip-creation endpoint.
const DefaultRemoteURL = "https://mapsync.onrender.com/newtrip"

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. When empty, trips are
	// kept in process memory and lost on exit.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFile, when set, also writes logs to this file with size-based rotation.
	LogFile string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// RemoteURL is the mapsync trip-creation endpoint. Setting REMOTE_URL to
	// an empty value disables the remote call.
	RemoteURL string

	// RemoteTimeout bounds each remote call. Defaults to 10s.
	RemoteTimeout time.Duration

	// RemoteFallback is what trip creation does when the remote call fails:
	// "local" (default) stores the trip locally, "fail" reports 502.
	RemoteFallback domain.FallbackPolicy

	// RedisAddr enables Idempotency-Key handling when set (host:port).
	RedisAddr string

	// CreatorID is stamped on every trip as its creator. Defaults to "user123".
	CreatorID string

	// MaxBodyBytes caps request body size. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// LoadDotEnv seeds the environment from the given .env files (default ".env").
// Variables already set in the environment win. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config.LoadDotEnv: %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns one error naming every variable whose value is invalid.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:        os.Getenv("LOG_FILE"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RemoteURL:      DefaultRemoteURL,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		CreatorID:      getEnv("CREATOR_ID", "user123"),
	}

	// REMOTE_URL distinguishes unset (default endpoint) from set-but-empty
	// (remote disabled, every trip is created locally).
	if v, ok := os.LookupEnv("REMOTE_URL"); ok {
		cfg.RemoteURL = strings.TrimSpace(v)
	}

	var invalid []string

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		invalid = append(invalid, "PORT")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "LOG_LEVEL")
	}

	timeout, err := time.ParseDuration(getEnv("REMOTE_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		invalid = append(invalid, "REMOTE_TIMEOUT")
	}
	cfg.RemoteTimeout = timeout

	fallback, err := domain.ParseFallbackPolicy(getEnv("REMOTE_FALLBACK", string(domain.FallbackLocal)))
	if err != nil {
		invalid = append(invalid, "REMOTE_FALLBACK")
	}
	cfg.RemoteFallback = fallback

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	cfg.MaxBodyBytes = maxBody

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
