package config

import (
	"fmt"
	"os"
	"strconv"

	"gocausal/internal/errors"
)

// Config is the complete application configuration.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Search    SearchConfig
	Data      DataConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds run-store connection settings. An empty URL disables
// persistence; runs are then kept in memory only.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds the web and API surface settings.
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// SearchConfig holds the default search parameters. Each can be overridden
// per request.
type SearchConfig struct {
	Test          string
	Alpha         float64
	Q             float64
	ColliderOnly  bool
	SkewRule      string
	MaxConcurrent int64
}

// DataConfig holds dataset input settings.
type DataConfig struct {
	File string
}

// ProfilingConfig holds pprof settings.
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			APIPort: getEnvOrDefault("API_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Search: SearchConfig{
			Test:          getEnvOrDefault("CI_TEST", "fisherz"),
			Alpha:         getEnvFloatOrDefault("ALPHA", 0.05),
			Q:             getEnvFloatOrDefault("Q", 1.0),
			ColliderOnly:  getEnvBoolOrDefault("COLLIDER_ONLY", false),
			SkewRule:      getEnvOrDefault("SKEW_RULE", ""),
			MaxConcurrent: int64(getEnvIntOrDefault("MAX_CONCURRENT_RUNS", 4)),
		},
		Data: DataConfig{
			File: getEnvOrDefault("DATA_FILE", ""),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	s := config.Search
	switch s.Test {
	case "fisherz", "chisquare":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("CI_TEST must be fisherz or chisquare, got %q", s.Test))
	}
	if s.Alpha <= 0 || s.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("ALPHA must be in (0, 1), got %g", s.Alpha))
	}
	if s.Q < 0 || s.Q > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("Q must be in [0, 1], got %g", s.Q))
	}
	if s.MaxConcurrent < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_RUNS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
