// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Date format choices for the persisted textual date column. The short
// two-digit-year format matches existing database files; the ISO format
// avoids the century collision at the cost of compatibility.
const (
	DateFormatShort = "short" // MM/DD/YY
	DateFormatISO   = "iso"   // YYYY-MM-DD
)

// Config holds application configuration
type Config struct {
	DatabasePath string // Path to the SQLite store (always absolute)
	DateFormat   string // DateFormatShort or DateFormatISO
	SavePolicy   string // "ignore", "update" or "fail"
	LogLevel     string
	Pretty       bool
	Headless     bool // Run the acquisition browser headless
	FetchTimeout int  // Acquisition timeout per stock, in seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dbPath := getEnv("STOCKTRACK_DB", "stocks.db")
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	cfg := &Config{
		DatabasePath: absPath,
		DateFormat:   getEnv("STOCKTRACK_DATE_FORMAT", DateFormatShort),
		SavePolicy:   getEnv("STOCKTRACK_SAVE_POLICY", "ignore"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Pretty:       getEnvAsBool("LOG_PRETTY", true),
		Headless:     getEnvAsBool("STOCKTRACK_HEADLESS", true),
		FetchTimeout: getEnvAsInt("STOCKTRACK_FETCH_TIMEOUT", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	switch c.DateFormat {
	case DateFormatShort, DateFormatISO:
	default:
		return fmt.Errorf("invalid STOCKTRACK_DATE_FORMAT %q (must be %q or %q)",
			c.DateFormat, DateFormatShort, DateFormatISO)
	}

	switch c.SavePolicy {
	case "ignore", "update", "fail":
	default:
		return fmt.Errorf("invalid STOCKTRACK_SAVE_POLICY %q (must be ignore, update or fail)", c.SavePolicy)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid STOCKTRACK_FETCH_TIMEOUT %d (must be positive)", c.FetchTimeout)
	}

	return nil
}

// DateLayout returns the Go time layout for the configured date format.
func (c *Config) DateLayout() string {
	if c.DateFormat == DateFormatISO {
		return "2006-01-02"
	}
	return "01/02/06"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
