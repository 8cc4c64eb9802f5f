package app

import (
	"os"
	"strconv"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/pkg/jwtx"
)

type Config struct {
	Issuer       string        // Issuer label for tokens and provisioning URIs (default: FileFortress)
	KeyFile      string        // Optional: path to a PEM-encoded Ed25519 signing key; ephemeral when empty
	DatabaseFile string        // Path to the SQLite database file (default: ./auth.db)
	PepperFile   string        // Path to the password pepper file (default: ./pepper)
	PendingTTL   time.Duration // Lifetime of pending registrations (default: 10m)
	AccessTTL    time.Duration // Access token lifetime (default: 15m)
	RefreshTTL   time.Duration // Refresh token lifetime (default: 7d)
	TOTPWindow   uint          // TOTP step tolerance in either direction (default: 2)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("AUTH_ISSUER", "FileFortress"),
		KeyFile:      os.Getenv("AUTH_KEY_FILE"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		PendingTTL: getEnvDurationOrDefault(
			"PENDING_REGISTRATION_TTL",
			domain.DefaultPendingRegistrationTTL,
		),
		AccessTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if windowStr := os.Getenv("TOTP_WINDOW"); windowStr != "" {
		if window, err := strconv.ParseUint(windowStr, 10, 8); err == nil {
			cfg.TOTPWindow = uint(window)
		}
	}

	return cfg
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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
