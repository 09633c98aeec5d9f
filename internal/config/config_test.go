package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.nasa.gov/neo/rest/v1", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, "data/raw", cfg.CacheDir)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, "Earth", cfg.OrbitingBody)
	assert.Equal(t, 15, cfg.HorizonYears)
	assert.Equal(t, "data/processed", cfg.ProcessedDir)
	assert.Equal(t, "outputs/reports", cfg.ReportsDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "neo-approaches", cfg.KafkaTopic)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("NASA_API_KEY", "test-key")
	t.Setenv("NEO_BASE_URL", "http://localhost:9999/neo/rest/v1")
	t.Setenv("NEO_REQUEST_TIMEOUT", "5s")
	t.Setenv("NEO_RETRY_BASE_DELAY", "100ms")
	t.Setenv("NEO_CACHE_DIR", "/tmp/neo-cache")
	t.Setenv("NEO_WINDOW_DAYS", "3")
	t.Setenv("NEO_ORBITING_BODY", "all")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999/neo/rest/v1", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, "/tmp/neo-cache", cfg.CacheDir)
	assert.Equal(t, 3, cfg.WindowDays)
	assert.Equal(t, "all", cfg.OrbitingBody)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "NEO_REQUEST_TIMEOUT", "soon"},
		{"negative window", "NEO_WINDOW_DAYS", "-1"},
		{"zero window", "NEO_WINDOW_DAYS", "0"},
		{"bad retry delay", "NEO_RETRY_BASE_DELAY", "0s"},
		{"kafka enabled without brokers", "KAFKA_ENABLED", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireAPIKey())

	cfg.APIKey = "k"
	require.NoError(t, cfg.RequireAPIKey())
}
