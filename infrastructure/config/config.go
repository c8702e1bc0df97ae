// Package config loads infrastructure configuration from the
// environment, with an optional file-watched overlay for runtime tuning.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage driver names
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage configuration
	StorageDriver string
	StorageDir    string
	SQLitePath    string

	// Chat collaborator configuration
	ChatBaseURL   string
	ChatAPIKey    string
	ChatModel     string
	ChatTimeoutMs int

	// Logging
	LogLevel   string
	LogSinkURL string

	// Dynamic tuning overlay, empty to disable
	DynamicConfigPath string

	// Viewport write coalescing window
	ViewportThrottleMs int

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver: getEnv("STORAGE_DRIVER", DriverFile),
		StorageDir:    getEnv("STORAGE_DIR", "data"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/kgraph.db"),

		ChatBaseURL:   getEnv("CHAT_BASE_URL", "https://openrouter.ai/api/v1"),
		ChatAPIKey:    getEnv("CHAT_API_KEY", ""),
		ChatModel:     getEnv("CHAT_MODEL", "openai/gpt-4o-mini"),
		ChatTimeoutMs: getEnvInt("CHAT_TIMEOUT_MS", 10000),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogSinkURL: getEnv("LOG_SINK_URL", ""),

		DynamicConfigPath: getEnv("DYNAMIC_CONFIG_PATH", ""),

		ViewportThrottleMs: getEnvInt("VIEWPORT_THROTTLE_MS", 200),

		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.StorageDriver == DriverFile && c.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR is required for the file driver")
	}
	if c.StorageDriver == DriverSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
	}
	if c.ChatTimeoutMs <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT_MS must be positive")
	}
	if c.ViewportThrottleMs <= 0 {
		return fmt.Errorf("VIEWPORT_THROTTLE_MS must be positive")
	}
	return nil
}

// IsProduction reports whether this is a production deployment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvBool gets a boolean environment variable with a fallback
func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvInt gets an integer environment variable with a fallback
func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
