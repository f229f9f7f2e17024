package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string

	// Paper-trading parameters
	InitialBalance float64 // Starting cash for a new portfolio, in XOF

	// Market data collaborator
	MarketDataURL  string
	QuoteTimeout   time.Duration // Upper bound on a single quote round trip
	MaxQuoteAge    time.Duration // Quotes older than this are considered stale
	PriceTolerance float64       // Max relative deviation between client price and the live quote

	// Trading engine
	LockTimeout time.Duration // Max wait for the per-portfolio lock

	// Valuation
	SnapshotSchedule string // Cron expression (with seconds) for the daily snapshot sweep
	MarketTimezone   string // IANA zone used to derive the snapshot calendar date

	// Database maintenance
	MaintenanceSchedule string // Cron expression for the nightly integrity check and WAL checkpoint
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8000),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/ledger.db"),
		InitialBalance:   getEnvAsFloat("INITIAL_BALANCE", 1000000),
		MarketDataURL:    getEnv("MARKET_DATA_URL", "http://localhost:9000"),
		QuoteTimeout:     getEnvAsDuration("QUOTE_TIMEOUT", 5*time.Second),
		MaxQuoteAge:      getEnvAsDuration("MAX_QUOTE_AGE", 5*time.Minute),
		PriceTolerance:   getEnvAsFloat("PRICE_TOLERANCE", 0.02),
		LockTimeout:      getEnvAsDuration("LOCK_TIMEOUT", 5*time.Second),
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 30 17 * * MON-FRI"),
		MarketTimezone:   getEnv("MARKET_TIMEZONE", "Africa/Abidjan"),

		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MarketDataURL == "" {
		return fmt.Errorf("MARKET_DATA_URL is required")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("INITIAL_BALANCE must be positive, got %.2f", c.InitialBalance)
	}
	if c.PriceTolerance < 0 || c.PriceTolerance >= 1 {
		return fmt.Errorf("PRICE_TOLERANCE must be in [0, 1), got %.4f", c.PriceTolerance)
	}
	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
