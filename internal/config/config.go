package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"reeler/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port          string
	DBPath        string
	DownloadsDir  string
	PollInterval  time.Duration
	ClientTimeout time.Duration
	LogLevel      string
	LogFormat     string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", constants.DefaultPort),
		DBPath:        getEnv("DB_PATH", constants.DefaultDBPath),
		DownloadsDir:  getEnv("DOWNLOADS_DIR", ""),
		PollInterval:  getEnvDuration("POLL_INTERVAL", constants.DefaultPollInterval),
		ClientTimeout: getEnvDuration("CLIENT_TIMEOUT", constants.DefaultClientTimeout),
		LogLevel:      getEnv("LOG_LEVEL", constants.DefaultLogLevel),
		LogFormat:     getEnv("LOG_FORMAT", constants.DefaultLogFormat),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.PollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("POLL_INTERVAL must be positive, got: %s", c.PollInterval))
	}

	if c.ClientTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("CLIENT_TIMEOUT must be positive, got: %s", c.ClientTimeout))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvDuration retrieves a duration environment variable with a fallback default
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
