package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://geocoding-api.open-meteo.com", cfg.GeocodingURL)
	assert.Equal(t, "https://api.open-meteo.com", cfg.ForecastURL)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, BackendSQLite, cfg.AssignmentBackend)
	assert.Equal(t, "weathernow.db", cfg.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.ValkeyAddr)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-search-results", cfg.KafkaTopic)
	assert.False(t, cfg.PhotoCatalogEnabled)
	assert.Equal(t, "photos", cfg.PhotoBucket)
	assert.Equal(t, "photos/", cfg.PhotoPrefix)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OPENMETEO_GEOCODING_URL", "http://geo.local")
	t.Setenv("OPENMETEO_FORECAST_URL", "http://forecast.local")
	t.Setenv("OPENMETEO_TIMEOUT", "3s")
	t.Setenv("OPENMETEO_BREAKER_ENABLED", "false")
	t.Setenv("ASSIGNMENT_BACKEND", "valkey")
	t.Setenv("VALKEY_ADDR", "redis://cache:6379/1")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "searches")
	t.Setenv("PHOTO_CATALOG_ENABLED", "true")
	t.Setenv("PHOTO_CATALOG_ENDPOINT", "http://minio:9000")
	t.Setenv("PHOTO_CATALOG_BUCKET", "user-photos")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://geo.local", cfg.GeocodingURL)
	assert.Equal(t, "http://forecast.local", cfg.ForecastURL)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.False(t, cfg.BreakerEnabled)
	assert.Equal(t, BackendValkey, cfg.AssignmentBackend)
	assert.Equal(t, "redis://cache:6379/1", cfg.ValkeyAddr)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "searches", cfg.KafkaTopic)
	assert.True(t, cfg.PhotoCatalogEnabled)
	assert.Equal(t, "http://minio:9000", cfg.PhotoEndpoint)
	assert.Equal(t, "user-photos", cfg.PhotoBucket)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidProviderTimeout(t *testing.T) {
	for _, v := range []string{"bad", "0s", "-2s"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("OPENMETEO_TIMEOUT", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "OPENMETEO_TIMEOUT")
		})
	}
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_ENABLED")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("ASSIGNMENT_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSIGNMENT_BACKEND")
}

func TestLoad_PhotoCatalogWithoutEndpoint(t *testing.T) {
	t.Setenv("PHOTO_CATALOG_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PHOTO_CATALOG_ENDPOINT")
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=warn\nKAFKA_TOPIC=from-dotenv\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("KAFKA_TOPIC", "from-env")
	// Registers a cleanup for the value godotenv writes.
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.KafkaTopic, "real environment wins over .env")
}
