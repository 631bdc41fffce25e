package app

import (
	"os"
	"strconv"
	"time"

	"github.com/nitrolabs/nitro/pkg/jwtx"
)

type Config struct {
	Issuer        string        // Required: issuer claim for credentials
	SessionSecret string        // Required in prod: HS256 signing secret (min 32 bytes); generated if empty
	SessionTTL    time.Duration // Optional: session lifetime (default: 30 days)

	DatabaseFile string // Optional: path to SQLite database file (default: ./nitro.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	AdminEmail    string // Optional: seed admin account email (created on an empty database)
	AdminName     string // Optional: seed admin display name
	AdminPassword string // Optional: seed admin password (generated and logged if empty)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-session sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        getEnvOrDefault("NITRO_ISSUER", "nitro-auth"),
		SessionSecret: os.Getenv("NITRO_SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("NITRO_SESSION_TTL", jwtx.DefaultSessionTTL),

		DatabaseFile: getEnvOrDefault("NITRO_DATABASE_FILE", "nitro.db"),
		PepperFile:   getEnvOrDefault("NITRO_PEPPER_FILE", "pepper"),

		AdminEmail:    os.Getenv("NITRO_ADMIN_EMAIL"),
		AdminName:     getEnvOrDefault("NITRO_ADMIN_NAME", "Administrator"),
		AdminPassword: os.Getenv("NITRO_ADMIN_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
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

	// Integer values are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
