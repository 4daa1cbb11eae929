/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures the server by reading operating system environment variables (optionally seeded
from a .env file by the entry point): the running environment, port, CORS allowed origins, the
JWT secret shared with the authentication service, the database, the chat gateway tuning
knobs, and the optional S3 attachment storage.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPersistTimeout  = 5 * time.Second
	defaultExcerptLength   = 50
	developmentEnvironment = "development"
	developmentJWTSecret   = "your_default_insecure_secret_key_change_me"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Chat Gateway Settings
	PersistTimeout      time.Duration
	NotificationExcerpt int

	// S3 Storage Settings. Attachments are disabled unless all four are set.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Database Settings. Empty in development selects the in-memory store.
	DatabaseDSN string
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == developmentEnvironment
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = developmentEnvironment
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	cfg.AllowedOrigins = []string{}
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	// JWTSecret
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		jwtSecret = developmentJWTSecret
	}
	cfg.JWTSecret = jwtSecret

	// --- Chat Gateway Settings ---
	cfg.PersistTimeout = defaultPersistTimeout
	if timeoutStr := os.Getenv("CHAT_PERSIST_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid CHAT_PERSIST_TIMEOUT environment variable %q", timeoutStr)
		}
		cfg.PersistTimeout = timeout
	}

	cfg.NotificationExcerpt = defaultExcerptLength
	if excerptStr := os.Getenv("CHAT_NOTIFICATION_EXCERPT"); excerptStr != "" {
		excerpt, err := strconv.Atoi(excerptStr)
		if err != nil || excerpt <= 0 {
			return nil, fmt.Errorf("invalid CHAT_NOTIFICATION_EXCERPT environment variable %q", excerptStr)
		}
		cfg.NotificationExcerpt = excerpt
	}

	// --- S3 Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	// --- Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required in %s environment", cfg.Environment)
	}

	return cfg, nil
}
