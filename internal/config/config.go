package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"abkit/domain/experiment"
	"abkit/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig `validate:"required"`
	Database DatabaseConfig
	Stats    StatsConfig `validate:"required"`
	Batch    BatchConfig `validate:"required"`
	Metrics  MetricsConfig
	LogLevel string `validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	GinMode         string        `validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig holds the optional postgres connection. An empty URL
// selects the in-memory experiment store.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a postgres URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// StatsConfig holds the default error rates used when a request omits them.
type StatsConfig struct {
	DefaultAlpha float64 `validate:"gt=0,lt=1"`
	DefaultBeta  float64 `validate:"gt=0,lt=1"`
}

// Params returns the defaults as TestParameters.
func (s StatsConfig) Params() experiment.TestParameters {
	return experiment.TestParameters{Alpha: s.DefaultAlpha, Beta: s.DefaultBeta}
}

// BatchConfig bounds concurrent evaluations.
type BatchConfig struct {
	Concurrency int `validate:"min=1,max=1024"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
}

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	alpha, err := getEnvFloat("DEFAULT_ALPHA", experiment.DefaultAlpha)
	if err != nil {
		return nil, err
	}
	beta, err := getEnvFloat("DEFAULT_BETA", experiment.DefaultBeta)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("BATCH_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Stats:    StatsConfig{DefaultAlpha: alpha, DefaultBeta: beta},
		Batch:    BatchConfig{Concurrency: concurrency},
		Metrics:  MetricsConfig{Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true)},
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks the struct tags and reports the first offending field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.ConfigInvalid(fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return f, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
