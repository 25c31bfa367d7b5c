// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Upstream endpoints
	ChainRPCURL       string // EVM JSON-RPC endpoint for balance and DEX reads
	ExchangeAPIURL    string // Primary price oracle (exchange ticker API)
	MarketAPIURL      string // Secondary price oracle (market data API)
	PredictionsAPIURL string // Prediction-market insight API
	ProverAPIURL      string // External proof service

	// Timeouts and cache bounds
	HTTPTimeout      time.Duration // Bound on every upstream HTTP call
	QuoteCacheTTL    time.Duration // Shared oracle quote cache
	ExchangeCacheTTL time.Duration // Client-side cache on the exchange path

	// PriceWarmSchedule is the cron expression for the cache warm job.
	// Empty disables the job.
	PriceWarmSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RISKCORE_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8090),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		ChainRPCURL:       getEnv("CHAIN_RPC_URL", "https://evm-t3.cronos.org"),
		ExchangeAPIURL:    getEnv("EXCHANGE_API_URL", "https://api.crypto.com/exchange/v1"),
		MarketAPIURL:      getEnv("MARKET_API_URL", "https://api.coingecko.com/api/v3"),
		PredictionsAPIURL: getEnv("PREDICTIONS_API_URL", "https://gamma-api.polymarket.com"),
		ProverAPIURL:      getEnv("PROVER_API_URL", "http://localhost:8000"),

		HTTPTimeout:      getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		QuoteCacheTTL:    getEnvAsDuration("QUOTE_CACHE_TTL", 60*time.Second),
		ExchangeCacheTTL: getEnvAsDuration("EXCHANGE_CACHE_TTL", 30*time.Second),

		PriceWarmSchedule: getEnv("PRICE_WARM_SCHEDULE", "@every 5m"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.QuoteCacheTTL <= 0 {
		return fmt.Errorf("QUOTE_CACHE_TTL must be positive")
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
