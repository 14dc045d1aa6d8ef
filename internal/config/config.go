// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port              string
	APIToken          string
	DBPath            string
	RoutingPolicyPath string
	Model             ModelConfig
	MarketSignal      MarketSignalConfig
}

// ModelConfig holds the optional deep-agent model runtime settings.
type ModelConfig struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	Temperature float64
}

// MarketSignalConfig controls the feature-flagged external search lookup.
type MarketSignalConfig struct {
	Enabled bool
	APIKey  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		APIToken:          getEnv("AGENTS_API_TOKEN", ""),
		DBPath:            getEnv("DB_PATH", "./data/synergy.db"),
		RoutingPolicyPath: getEnv("ROUTING_POLICY_PATH", ""),
		Model: ModelConfig{
			Endpoint:    getEnv("MODEL_ENDPOINT", ""),
			APIKey:      getEnv("MODEL_API_KEY", ""),
			Deployment:  getEnv("MODEL_DEPLOYMENT", ""),
			Temperature: getEnvFloat("MODEL_TEMPERATURE", 0.1),
		},
		MarketSignal: MarketSignalConfig{
			Enabled: getEnvBool("ENABLE_MARKET_SIGNAL_TOOL", false),
			APIKey:  getEnv("TAVILY_API_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIToken == "" {
		return fmt.Errorf("AGENTS_API_TOKEN is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("MODEL_TEMPERATURE must be between 0 and 2")
	}
	return nil
}

// ModelConfigured returns true if every model runtime setting is present.
func (c *Config) ModelConfigured() bool {
	return c.Model.Endpoint != "" && c.Model.APIKey != "" && c.Model.Deployment != ""
}

// MarketSignalConfigured returns true if the market signal lookup can run.
func (c *Config) MarketSignalConfigured() bool {
	return c.MarketSignal.Enabled && c.MarketSignal.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
