package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server configuration
	Port int    `json:"port"`
	Host string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_ssl_mode"`
	DBPath     string `json:"db_path"`

	// Session cache configuration
	RedisURL         string `json:"redis_url"`
	SessionTTLHours  int    `json:"session_ttl_hours"`

	// Token configuration
	OAuthTokenTTLSeconds     int `json:"oauth_token_ttl_seconds"`
	MaxPersonalTokensPerUser int `json:"max_personal_tokens_per_user"`

	// Federated login configuration
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	FrontendURL        string `json:"frontend_url"`

	// Logging configuration
	LogLevel string `json:"log_level"`
}

// SessionTTL returns the configured session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// OAuthTokenTTL returns the configured OAuth access token lifetime as a duration.
func (c *Config) OAuthTokenTTL() time.Duration {
	return time.Duration(c.OAuthTokenTTLSeconds) * time.Second
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], RedisURL: %s, SessionTTLHours: %d, OAuthTokenTTLSeconds: %d, MaxPersonalTokensPerUser: %d, GoogleClientID: %s, GoogleClientSecret: [REDACTED], FrontendURL: %s, LogLevel: %s}",
		c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, maskURL(c.RedisURL),
		c.SessionTTLHours, c.OAuthTokenTTLSeconds, c.MaxPersonalTokensPerUser,
		c.GoogleClientID, c.FrontendURL, c.LogLevel)
}

// maskURL masks any password embedded in a connection URL
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig reads the application configuration from environment variables
// and returns a Config struct. Returns an error if a variable has an invalid
// format; unset variables fall back to development defaults.
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	redisURL := GetEnvWithDefault("REDIS_URL", "redis://localhost:6379")
	if _, err := url.Parse(redisURL); err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL format: %w", err)
	}

	config := &Config{
		Port: port,
		Host: GetEnvWithDefault("APP_HOST", "localhost"),

		DBDriver:   GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBHost:     GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     GetEnvWithDefault("DB_PORT", "5432"),
		DBUser:     GetEnvWithDefault("DB_USER", "postgres"),
		DBPassword: GetEnvWithDefault("DB_PASSWORD", "postgres"),
		DBName:     GetEnvWithDefault("DB_NAME", "yata_dev"),
		DBSSLMode:  GetEnvWithDefault("DB_SSL_MODE", "disable"),
		DBPath:     GetEnvWithDefault("DB_PATH", "yata.sqlite"),

		RedisURL:        redisURL,
		SessionTTLHours: GetEnvAsType("SESSION_TTL_HOURS", 24),

		OAuthTokenTTLSeconds:     GetEnvAsType("OAUTH_TOKEN_TTL_SECONDS", 3600),
		MaxPersonalTokensPerUser: GetEnvAsType("MAX_PERSONAL_TOKENS_PER_USER", 10),

		GoogleClientID:     GetEnvWithDefault("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: GetEnvWithDefault("GOOGLE_CLIENT_SECRET", ""),
		FrontendURL:        GetEnvWithDefault("FRONTEND_URL", "http://localhost:3000"),

		LogLevel: GetEnvWithDefault("LOG_LEVEL", "info"),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Warnf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
