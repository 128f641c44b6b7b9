// Package config loads service settings from an optional YAML file and
// QSETL_-prefixed environment variables, env taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all service settings.
type Config struct {
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	HTTPAddr        string        `koanf:"http_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// PollInterval between ETL cycles; 0 runs a single cycle and exits.
	PollInterval time.Duration `koanf:"poll_interval"`

	// Quick Stats API access. The key is required and must never be logged.
	NASSAPIKey  string        `koanf:"nass_api_key"`
	NASSBaseURL string        `koanf:"nass_base_url"`
	NASSTimeout time.Duration `koanf:"nass_timeout"`

	// Survey selection.
	Commodity      string `koanf:"commodity"`
	MinYear        int    `koanf:"min_year"`
	StateAlpha     string `koanf:"state_alpha"`
	DomainCategory string `koanf:"domain_category"`

	// Sinks. Kafka is enabled when brokers are set, Postgres when the DSN is.
	KafkaBrokers string `koanf:"kafka_brokers"` // comma-separated
	KafkaTopic   string `koanf:"kafka_topic"`
	PostgresDSN  string `koanf:"postgres_dsn"`
}

// defaults returns a Config with every field that has a sensible default set.
func defaults() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       "json",
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		PollInterval:    0,
		NASSBaseURL:     "https://quickstats.nass.usda.gov",
		NASSTimeout:     30 * time.Second,
		Commodity:       "CORN",
		MinYear:         2007,
		DomainCategory:  "AREA OPERATED: (2,000 OR MORE ACRES)",
		KafkaTopic:      "county-irrigation",
	}
}

// Load builds a Config by layering defaults, an optional YAML file named by
// QSETL_CONFIG, and QSETL_-prefixed environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("QSETL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// QSETL_MIN_YEAR -> min_year, QSETL_NASS_API_KEY -> nass_api_key, etc.
	envProvider := env.Provider("QSETL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "QSETL_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.NASSAPIKey == "" {
		return errors.New("QSETL_NASS_API_KEY is required")
	}
	if c.MinYear < 1000 || c.MinYear > 9999 {
		return fmt.Errorf("min_year must be a 4-digit year, got %d", c.MinYear)
	}
	if c.Commodity == "" {
		return errors.New("commodity must not be empty")
	}
	if c.DomainCategory == "" {
		return errors.New("domain_category must not be empty")
	}
	if c.NASSTimeout <= 0 {
		return errors.New("nass_timeout must be positive")
	}
	if c.KafkaBrokers != "" && c.KafkaTopic == "" {
		return errors.New("kafka_topic is required when kafka_brokers is set")
	}
	return nil
}

// Brokers splits the comma-separated broker list, dropping empty entries.
func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// KafkaEnabled reports whether the Kafka sink should be wired.
func (c *Config) KafkaEnabled() bool { return len(c.Brokers()) > 0 }

// PostgresEnabled reports whether the Postgres sink should be wired.
func (c *Config) PostgresEnabled() bool { return c.PostgresDSN != "" }
