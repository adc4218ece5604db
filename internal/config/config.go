// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/callwriter/internal/clients/tradier"
	"github.com/aristath/callwriter/internal/modules/analysis"
	"github.com/aristath/callwriter/internal/modules/probability"
	"github.com/aristath/callwriter/internal/utils"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// DefaultCleanupSchedule purges expired cache rows daily at 03:00.
const DefaultCleanupSchedule = "0 0 3 * * *"

// Config holds application configuration
type Config struct {
	DataDir          string // Directory of the cache database, always absolute
	LogLevel         string
	Port             int
	DevMode          bool
	TradierAPIKey    string
	TradierBaseURL   string
	WorkerCount      int
	GridPoints       int // Clamped to the supported grid range
	RiskFreeRate     float64
	VolatilityWindow int // Trading days of history behind the volatility estimate
	CleanupSchedule  string
	CORSOrigins      []string // Empty allows any origin
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvAsInt("PORT", 8001),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		TradierAPIKey:    getEnv("TRADIER_API_KEY", ""),
		TradierBaseURL:   getEnv("TRADIER_BASE_URL", tradier.DefaultBaseURL),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 10),
		GridPoints:       probability.ClampGridPoints(getEnvAsInt("GRID_POINTS", probability.DefaultGridPoints)),
		RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", analysis.DefaultRiskFreeRate),
		VolatilityWindow: getEnvAsInt("VOLATILITY_WINDOW", 30),
		CleanupSchedule:  getEnv("CACHE_CLEANUP_SCHEDULE", DefaultCleanupSchedule),
		CORSOrigins:      utils.ParseCSV(getEnv("CORS_ORIGINS", "")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.VolatilityWindow < 2 {
		return fmt.Errorf("VOLATILITY_WINDOW must be at least 2, got %d", c.VolatilityWindow)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("RISK_FREE_RATE must not be negative, got %v", c.RiskFreeRate)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid CACHE_CLEANUP_SCHEDULE %q: %w", c.CleanupSchedule, err)
	}

	// Tradier key optional: requests go out unauthenticated and fail upstream

	return nil
}

// DatabasePath returns the location of the cache database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// AnalyzerConfig builds the batch analyzer configuration
func (c *Config) AnalyzerConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.Workers = c.WorkerCount
	cfg.GridPoints = c.GridPoints
	cfg.RiskFreeRate = c.RiskFreeRate
	return cfg
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
