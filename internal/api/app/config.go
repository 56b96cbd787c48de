package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for tokens and TOTP provisioning (default: crewtask)

	DatabaseFile    string        // Path to SQLite database file (default: ./crewtask.db)
	SigningKeyFile  string        // Path to Ed25519 signing key PEM; empty means ephemeral
	AccessTTL       time.Duration // Access token lifetime (default: 15m)
	MinAuthDuration time.Duration // Minimum wall-clock duration for login attempts (default: 1s)
	LoginAttempts   int           // Password failures allowed before lockout (default: 3)
	CodeAttempts    int           // Code failures allowed before lockout (default: 3)
	LockoutWindow   time.Duration // Lockout duration (default: 10m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer: getEnvOrDefault("CREWTASK_ISSUER", "crewtask"),

		DatabaseFile:    getEnvOrDefault("CREWTASK_DATABASE_FILE", "crewtask.db"),
		SigningKeyFile:  os.Getenv("CREWTASK_SIGNING_KEY_FILE"), // Optional: empty means ephemeral
		AccessTTL:       getEnvDurationOrDefault("CREWTASK_ACCESS_TTL", 15*time.Minute),
		MinAuthDuration: getEnvDurationOrDefault("CREWTASK_MIN_AUTH_DURATION", 1*time.Second),
		LoginAttempts:   getEnvIntOrDefault("CREWTASK_LOGIN_ATTEMPTS", 3),
		CodeAttempts:    getEnvIntOrDefault("CREWTASK_CODE_ATTEMPTS", 3),
		LockoutWindow:   getEnvDurationOrDefault("CREWTASK_LOCKOUT_WINDOW", 10*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
