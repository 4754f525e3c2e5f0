package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Cache     CacheConfig
	Scanner   ScannerConfig
	History   HistoryConfig
	Inventory InventoryConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds product-lookup provider configuration
type ProviderConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	UserAgent         string `mapstructure:"user_agent"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ScannerConfig holds scan-session configuration
type ScannerConfig struct {
	FrameBuffer int  `mapstructure:"frame_buffer"`
	Chime       bool `mapstructure:"chime"`
}

// HistoryConfig holds scan-history storage configuration
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// InventoryConfig holds inventory backend configuration. An empty base URL
// disables persistence (accepted items are only reported to the caller).
type InventoryConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	Burst int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pantrypal/")

	// Environment variable settings
	v.SetEnvPrefix("PANTRYPAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Provider defaults
	v.SetDefault("provider.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("provider.user_agent", "PantryPal/1.0 (pantry scan backend)")
	v.SetDefault("provider.requests_per_minute", 100)

	// Cache defaults
	v.SetDefault("cache.ttl", "720h") // 30 days

	// Scanner defaults
	v.SetDefault("scanner.frame_buffer", 4)
	v.SetDefault("scanner.chime", true)

	// History defaults
	v.SetDefault("history.path", "pantrypal.db")

	// Inventory defaults
	v.SetDefault("inventory.base_url", "")
	v.SetDefault("inventory.timeout", "10s")
	v.SetDefault("inventory.retry_max", 3)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.burst", 30)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL is required (set PANTRYPAL_PROVIDER_BASE_URL)")
	}

	if config.Provider.RequestsPerMinute <= 0 {
		return fmt.Errorf("provider requests per minute must be positive, got: %d", config.Provider.RequestsPerMinute)
	}

	if config.Scanner.FrameBuffer <= 0 {
		return fmt.Errorf("scanner frame buffer must be positive, got: %d", config.Scanner.FrameBuffer)
	}

	if config.Inventory.BaseURL != "" && config.Inventory.RetryMax < 0 {
		return fmt.Errorf("inventory retry max must not be negative, got: %d", config.Inventory.RetryMax)
	}

	return nil
}
