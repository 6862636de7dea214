// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ricesearch/evalkit/callback"
)

// Config holds all application configuration.
type Config struct {
	// Evaluation configuration
	Eval EvalConfig `yaml:"eval"`

	// History configuration
	History HistoryConfig `yaml:"history"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// EvalConfig holds evaluation defaults.
type EvalConfig struct {
	Metrics []string `envconfig:"EVALKIT_METRICS" yaml:"metrics"`
	K       int      `envconfig:"EVALKIT_K" yaml:"k"`
	Workers int      `envconfig:"EVALKIT_WORKERS" yaml:"workers"`
}

// HistoryConfig holds evaluation history settings.
type HistoryConfig struct {
	Backend  string        `envconfig:"EVALKIT_HISTORY_BACKEND" yaml:"backend"`
	RedisURL string        `envconfig:"EVALKIT_REDIS_URL" yaml:"redis_url"`
	Prefix   string        `envconfig:"EVALKIT_HISTORY_PREFIX" yaml:"prefix"`
	TTL      time.Duration `envconfig:"EVALKIT_HISTORY_TTL" yaml:"ttl"`
	Patience int           `envconfig:"EVALKIT_PATIENCE" yaml:"patience"` // 0 = never stop early
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"EVALKIT_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"EVALKIT_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaVersion string `envconfig:"EVALKIT_KAFKA_VERSION" yaml:"kafka_version"`
	ClientID     string `envconfig:"EVALKIT_KAFKA_CLIENT_ID" yaml:"client_id"`

	// RateLimit caps published events per second and topic. 0 disables it.
	RateLimit float64 `envconfig:"EVALKIT_BUS_RATE_LIMIT" yaml:"rate_limit"`
	Burst     int     `envconfig:"EVALKIT_BUS_BURST" yaml:"burst"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"EVALKIT_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"EVALKIT_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Eval = EvalConfig{
		Metrics: []string{"rmse", "gini"},
		K:       5,
		Workers: 4,
	}

	cfg.History = HistoryConfig{
		Backend:  "memory",
		RedisURL: "redis://localhost:6379",
		Prefix:   "evalkit:history:",
		TTL:      24 * time.Hour,
		Patience: 0,
	}

	cfg.Bus = BusConfig{
		Type:         "memory",
		KafkaVersion: "2.8.0",
		ClientID:     "evalkit",
		RateLimit:    0,
		Burst:        100,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Eval validation
	if len(c.Eval.Metrics) == 0 {
		errs = append(errs, "at least one metric is required")
	}
	for _, name := range c.Eval.Metrics {
		if _, err := callback.Lookup(name); err != nil {
			errs = append(errs, fmt.Sprintf("unknown metric: %s (must be one of %s)", name, strings.Join(callback.Names(), ", ")))
		}
	}

	if c.Eval.K < 1 {
		errs = append(errs, "k must be positive")
	}

	if c.Eval.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	// History validation
	validBackends := map[string]bool{"memory": true, "redis": true}
	if !validBackends[c.History.Backend] {
		errs = append(errs, fmt.Sprintf("invalid history backend: %s (must be memory or redis)", c.History.Backend))
	}

	if c.History.Backend == "redis" && c.History.RedisURL == "" {
		errs = append(errs, "redis_url is required for the redis history backend")
	}

	if c.History.Patience < 0 {
		errs = append(errs, "patience must not be negative")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && strings.TrimSpace(c.Bus.KafkaBrokers) == "" {
		errs = append(errs, "kafka_brokers is required for the kafka bus")
	}

	if c.Bus.RateLimit < 0 {
		errs = append(errs, "bus rate_limit must not be negative")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
