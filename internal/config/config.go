package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Assignment snapshot backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendValkey = "valkey"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open-Meteo provider configuration.
	GeocodingURL    string
	ForecastURL     string
	ProviderTimeout time.Duration
	BreakerEnabled  bool

	// Assignment snapshot storage.
	AssignmentBackend string
	SQLitePath        string
	ValkeyAddr        string

	// Search transition feed.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Photo catalog (S3-compatible bucket).
	PhotoCatalogEnabled bool
	PhotoEndpoint       string
	PhotoAccessKey      string
	PhotoSecretKey      string
	PhotoBucket         string
	PhotoPrefix         string
	PhotoRegion         string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("OPENMETEO_TIMEOUT", "10s"))
	if err != nil || providerTimeout <= 0 {
		return nil, errors.New("invalid OPENMETEO_TIMEOUT")
	}

	breakerEnabled, err := parseBool("OPENMETEO_BREAKER_ENABLED", true)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}
	photoEnabled, err := parseBool("PHOTO_CATALOG_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocodingURL:    sharedcfg.EnvOrDefault("OPENMETEO_GEOCODING_URL", "https://geocoding-api.open-meteo.com"),
		ForecastURL:     sharedcfg.EnvOrDefault("OPENMETEO_FORECAST_URL", "https://api.open-meteo.com"),
		ProviderTimeout: providerTimeout,
		BreakerEnabled:  breakerEnabled,

		AssignmentBackend: sharedcfg.EnvOrDefault("ASSIGNMENT_BACKEND", BackendSQLite),
		SQLitePath:        sharedcfg.EnvOrDefault("SQLITE_PATH", "weathernow.db"),
		ValkeyAddr:        sharedcfg.EnvOrDefault("VALKEY_ADDR", "localhost:6379"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-search-results"),

		PhotoCatalogEnabled: photoEnabled,
		PhotoEndpoint:       os.Getenv("PHOTO_CATALOG_ENDPOINT"),
		PhotoAccessKey:      os.Getenv("PHOTO_CATALOG_ACCESS_KEY"),
		PhotoSecretKey:      os.Getenv("PHOTO_CATALOG_SECRET_KEY"),
		PhotoBucket:         sharedcfg.EnvOrDefault("PHOTO_CATALOG_BUCKET", "photos"),
		PhotoPrefix:         sharedcfg.EnvOrDefault("PHOTO_CATALOG_PREFIX", "photos/"),
		PhotoRegion:         os.Getenv("PHOTO_CATALOG_REGION"),
	}

	switch cfg.AssignmentBackend {
	case BackendMemory:
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required when ASSIGNMENT_BACKEND is sqlite")
		}
	case BackendValkey:
		if cfg.ValkeyAddr == "" {
			return nil, errors.New("VALKEY_ADDR is required when ASSIGNMENT_BACKEND is valkey")
		}
	default:
		return nil, fmt.Errorf("invalid ASSIGNMENT_BACKEND %q: want memory, sqlite or valkey", cfg.AssignmentBackend)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required")
		}
	}
	if cfg.PhotoCatalogEnabled && cfg.PhotoEndpoint == "" {
		return nil, errors.New("PHOTO_CATALOG_ENABLED is true but PHOTO_CATALOG_ENDPOINT is not set")
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
