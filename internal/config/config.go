// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // report time zone must resolve without system zoneinfo

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StorageBackend string
	StorageDir     string
	SQLitePath     string
	StorageSlot    string

	ReportLocation *time.Location
	ReportCacheTTL time.Duration

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(sharedcfg.EnvOrDefault("REPORT_TIMEZONE", "Asia/Manila"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("REPORT_CACHE_TTL", "10m"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid REPORT_CACHE_TTL")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StorageBackend: sharedcfg.EnvOrDefault("STORAGE_BACKEND", StorageFile),
		StorageDir:     sharedcfg.EnvOrDefault("STORAGE_DIR", "./data"),
		SQLitePath:     sharedcfg.EnvOrDefault("SQLITE_PATH", "./data/basket.db"),
		StorageSlot:    sharedcfg.EnvOrDefault("STORAGE_SLOT", "sinagspatial_basket"),

		ReportLocation: location,
		ReportCacheTTL: cacheTTL,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "flood-analysis-results"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "flood-reports"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "flood-report-basket"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want %q or %q", c.StorageBackend, StorageFile, StorageSQLite)
	}
	if c.StorageSlot == "" {
		return errors.New("STORAGE_SLOT is required")
	}
	if !c.KafkaEnabled {
		return nil
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required when KAFKA_ENABLED is true")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}
	return nil
}
