// Package config resolves process configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process-level settings shared by all commands.
type Config struct {
	// DBPath is the sqlite database file. ":memory:" is accepted.
	DBPath string

	// LogLevel is one of debug, info, warn, error.
	LogLevel slog.Level

	// User is the acting principal recorded as owner and executor.
	User string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present; a missing file is
// not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:   getEnv("RECKON_DB_PATH", "reckon.db"),
		LogLevel: parseLevel(getEnv("RECKON_LOG_LEVEL", "info")),
		User:     getEnv("RECKON_USER", ""),
	}
}

// SetupLogger installs a text slog handler at the configured level as
// the process default. Logs go to stderr so command output on stdout
// stays clean.
func (c Config) SetupLogger() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: c.LogLevel,
	})))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
