package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort           int
	DatabasePath         string
	JWTSecret            string
	AllowedOrigin        string
	QuickListCleanupCron string
	QuickListMaxIdleDays int
}

// Load loads configuration from a .env file (if present) and
// environment variables, with defaults.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}

	maxIdle, err := strconv.Atoi(getEnv("QUICKLIST_MAX_IDLE_DAYS", "90"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:           port,
		DatabasePath:         getEnv("DATABASE_PATH", "./pads.db"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AllowedOrigin:        getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		QuickListCleanupCron: getEnv("QUICKLIST_CLEANUP_CRON", "0 4 * * *"),
		QuickListMaxIdleDays: maxIdle,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
