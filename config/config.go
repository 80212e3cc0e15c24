package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Coin economy configuration
	StartingBalance int64

	// Discord announcements (optional; disabled when token is empty)
	DiscordToken     string
	DiscordChannelID string

	// NATS push notifications (optional; disabled when URL is empty)
	NATSURL string

	// Metrics HTTP server port
	MetricsPort string

	// Settlement sweep interval in seconds for decided markets
	SettleSweepSeconds int

	// Environment
	Environment string // "development", "production", or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		NATSURL:          os.Getenv("NATS_URL"),

		// Defaults
		StartingBalance:    10000,
		MetricsPort:        "9090",
		SettleSweepSeconds: 60,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		config.MetricsPort = port
	}
	if sweep := os.Getenv("SETTLE_SWEEP_SECONDS"); sweep != "" {
		if parsed, err := strconv.Atoi(sweep); err == nil && parsed > 0 {
			config.SettleSweepSeconds = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
