package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// External service configurations
	AlphaVantage AlphaVantageConfig
	Polygon      PolygonConfig
	Yahoo        YahooConfig
	Currency     CurrencyConfig

	// Resolution configuration
	Resolver ResolverConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AlphaVantageConfig holds Alpha Vantage API configuration.
// The literal key "demo" is a recognized placeholder meaning unconfigured.
type AlphaVantageConfig struct {
	APIKey      string
	MinInterval time.Duration
}

// PolygonConfig holds Polygon API configuration
type PolygonConfig struct {
	APIKey      string
	MinInterval time.Duration
}

// YahooConfig holds Yahoo Finance configuration (no key required)
type YahooConfig struct {
	Timeout time.Duration
}

// CurrencyConfig holds exchange-rate API configuration
type CurrencyConfig struct {
	Timeout       time.Duration
	FallbackRates map[string]float64
}

// ResolverConfig holds resolution pipeline configuration
type ResolverConfig struct {
	RequestTimeout time.Duration
	QuoteCacheTTL  time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               string
	CORSAllowedOrigins string
	TimeoutSeconds     int
}

// defaultFallbackRates is the built-in currency table, expressed as units
// of foreign currency per 1 USD. Used whenever the rate API is unreachable.
func defaultFallbackRates() map[string]float64 {
	return map[string]float64{
		"EUR": 0.85, "GBP": 0.73, "CHF": 0.88, "SEK": 10.5,
		"NOK": 10.8, "DKK": 6.4, "PLN": 4.0, "CZK": 22.0,
		"CAD": 1.25, "AUD": 1.35, "JPY": 110.0, "CNY": 6.45,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:      os.Getenv("ALPHA_VANTAGE_API_KEY"),
			MinInterval: time.Duration(getEnvInt("ALPHA_VANTAGE_MIN_INTERVAL_SECONDS", 12)) * time.Second,
		},
		Polygon: PolygonConfig{
			APIKey:      os.Getenv("POLYGON_API_KEY"),
			MinInterval: time.Duration(getEnvInt("POLYGON_MIN_INTERVAL_SECONDS", 1)) * time.Second,
		},
		Yahoo: YahooConfig{
			Timeout: time.Duration(getEnvInt("YAHOO_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Currency: CurrencyConfig{
			Timeout:       time.Duration(getEnvInt("CURRENCY_API_TIMEOUT_SECONDS", 10)) * time.Second,
			FallbackRates: defaultFallbackRates(),
		},
		Resolver: ResolverConfig{
			RequestTimeout: time.Duration(getEnvInt("RESOLVER_REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
			QuoteCacheTTL:  time.Duration(getEnvInt("QUOTE_CACHE_TTL_MINUTES", 15)) * time.Minute,
		},
		HTTP: HTTPConfig{
			Port:               getEnvString("HTTP_PORT", "8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			TimeoutSeconds:     getEnvInt("HTTP_TIMEOUT_SECONDS", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Currency.Timeout <= 0 {
		return fmt.Errorf("CURRENCY_API_TIMEOUT_SECONDS must be positive, got %v", c.Currency.Timeout)
	}
	if c.Resolver.RequestTimeout <= 0 {
		return fmt.Errorf("RESOLVER_REQUEST_TIMEOUT_SECONDS must be positive, got %v", c.Resolver.RequestTimeout)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if len(c.Currency.FallbackRates) == 0 {
		return fmt.Errorf("fallback currency table must not be empty")
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAlphaVantage returns true if a usable Alpha Vantage key is configured.
// The "demo" placeholder counts as unconfigured.
func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantage.APIKey != "" && c.AlphaVantage.APIKey != "demo"
}

// HasPolygon returns true if Polygon configuration is available
func (c *Config) HasPolygon() bool {
	return c.Polygon.APIKey != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: ""},
		AlphaVantage: AlphaVantageConfig{
			APIKey:      "",
			MinInterval: 12 * time.Second,
		},
		Polygon: PolygonConfig{
			APIKey:      "",
			MinInterval: time.Second,
		},
		Yahoo: YahooConfig{
			Timeout: 10 * time.Second,
		},
		Currency: CurrencyConfig{
			Timeout:       10 * time.Second,
			FallbackRates: defaultFallbackRates(),
		},
		Resolver: ResolverConfig{
			RequestTimeout: 10 * time.Second,
			QuoteCacheTTL:  15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Port:               "8080",
			CORSAllowedOrigins: "*",
			TimeoutSeconds:     60,
		},
	}
}
