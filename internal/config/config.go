// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	// Port the HTTP server listens on
	Port int
	// StorageType selects the storage backend ("memory" or "redis")
	StorageType string
	// RedisURL is the Redis connection string, required for redis storage
	RedisURL string
	// AdminToken is the shared facilitator credential for the management
	// API. Empty disables the check.
	AdminToken string
	// LogLevel is the minimum slog level ("debug", "info", "warn", "error")
	LogLevel slog.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        3001,
		StorageType: os.Getenv("STORAGE_TYPE"),
		RedisURL:    os.Getenv("REDIS_URL"),
		AdminToken:  os.Getenv("ADMIN_TOKEN"),
		LogLevel:    slog.LevelInfo,
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		cfg.LogLevel = l
	}

	return cfg, nil
}
