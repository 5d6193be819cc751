// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Verification providers
	ProviderMode    string // "stub" or "live"
	MiddeskAPIURL   string
	MiddeskAPIKey   string
	ISoftpullAPIURL string
	ISoftpullAPIKey string
	SOSAPIURL       string
	SOSAPIKey       string

	// Verification spend limits (USD)
	DailyBudgetUSD    decimal.Decimal
	PerAnalysisCapUSD decimal.Decimal

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint; tracing is a no-op when empty

	RateLimitRPS int
}

const (
	DefaultPort        = "8080"
	DefaultEnv         = "development"
	DefaultLogLevel    = "info"
	DefaultDailyBudget = "200"
	DefaultAnalysisCap = "50"
	DefaultRateLimit   = 100

	ProviderModeStub = "stub"
	ProviderModeLive = "live"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	dailyBudget, err := decimal.NewFromString(getEnv("DAILY_BUDGET_USD", DefaultDailyBudget))
	if err != nil {
		return nil, fmt.Errorf("DAILY_BUDGET_USD must be a decimal: %w", err)
	}
	analysisCap, err := decimal.NewFromString(getEnv("PER_ANALYSIS_BUDGET_USD", DefaultAnalysisCap))
	if err != nil {
		return nil, fmt.Errorf("PER_ANALYSIS_BUDGET_USD must be a decimal: %w", err)
	}

	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		Env:               getEnv("ENV", DefaultEnv),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:       os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		ProviderMode:      getEnv("PROVIDER_MODE", ProviderModeStub),
		MiddeskAPIURL:     getEnv("MIDDESK_API_URL", "https://api.middesk.com"),
		MiddeskAPIKey:     os.Getenv("MIDDESK_API_KEY"),
		ISoftpullAPIURL:   getEnv("ISOFTPULL_API_URL", "https://api.isoftpull.com"),
		ISoftpullAPIKey:   os.Getenv("ISOFTPULL_API_KEY"),
		SOSAPIURL:         getEnv("SOS_API_URL", "https://api.sosregistry.example.com"),
		SOSAPIKey:         os.Getenv("SOS_API_KEY"),
		DailyBudgetUSD:    dailyBudget,
		PerAnalysisCapUSD: analysisCap,
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPS:      int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	switch c.ProviderMode {
	case ProviderModeStub:
	case ProviderModeLive:
		if c.MiddeskAPIKey == "" || c.ISoftpullAPIKey == "" || c.SOSAPIKey == "" {
			return fmt.Errorf("PROVIDER_MODE=live requires MIDDESK_API_KEY, ISOFTPULL_API_KEY and SOS_API_KEY")
		}
	default:
		return fmt.Errorf("PROVIDER_MODE must be %q or %q", ProviderModeStub, ProviderModeLive)
	}

	if c.DailyBudgetUSD.Sign() <= 0 {
		return fmt.Errorf("DAILY_BUDGET_USD must be positive")
	}
	if c.PerAnalysisCapUSD.Sign() <= 0 {
		return fmt.Errorf("PER_ANALYSIS_BUDGET_USD must be positive")
	}
	if c.PerAnalysisCapUSD.GreaterThan(c.DailyBudgetUSD) {
		return fmt.Errorf("PER_ANALYSIS_BUDGET_USD cannot exceed DAILY_BUDGET_USD")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
