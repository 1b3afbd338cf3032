package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	HTTP        HTTPConfig
	Redis       RedisConfig
	Monsters    MonstersConfig
}

// HTTPConfig holds the HTTP server configuration
type HTTPConfig struct {
	Addr string
}

// RedisConfig holds Redis-specific configuration. An empty URL means the
// server runs on in-memory repositories.
type RedisConfig struct {
	URL string
}

// MonstersConfig controls the SRD monster library lookups
type MonstersConfig struct {
	Enabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		HTTP: HTTPConfig{
			Addr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Monsters: MonstersConfig{
			Enabled: getEnvAsBoolOrDefault("MONSTER_LIBRARY_ENABLED", true),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
