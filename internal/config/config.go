package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	// NeoWs API access.
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RetryBaseDelay time.Duration

	// Ingestion.
	CacheDir     string
	WindowDays   int
	OrbitingBody string
	HorizonYears int

	// Build outputs.
	ProcessedDir string
	ReportsDir   string

	// Serve command.
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional Kafka export of built approaches.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// where unset. The API key is deliberately not required here: only the
// commands that talk to the feed need it, and they check via RequireAPIKey.
func Load() (*Config, error) {
	requestTimeout, err := parseDuration("NEO_REQUEST_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	retryBase, err := parseDuration("NEO_RETRY_BASE_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	windowDays, err := parsePositiveInt("NEO_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}
	horizonYears, err := parsePositiveInt("NEO_HORIZON_YEARS", 15)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		APIKey:         os.Getenv("NASA_API_KEY"),
		BaseURL:        envOrDefault("NEO_BASE_URL", "https://api.nasa.gov/neo/rest/v1"),
		RequestTimeout: requestTimeout,
		RetryBaseDelay: retryBase,

		CacheDir:     envOrDefault("NEO_CACHE_DIR", "data/raw"),
		WindowDays:   windowDays,
		OrbitingBody: envOrDefault("NEO_ORBITING_BODY", "Earth"),
		HorizonYears: horizonYears,

		ProcessedDir: envOrDefault("NEO_PROCESSED_DIR", "data/processed"),
		ReportsDir:   envOrDefault("NEO_REPORTS_DIR", "outputs/reports"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "neo-approaches"),
		KafkaEnabled: kafkaEnabled,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("NEO_BASE_URL must not be empty")
	}
	if cfg.CacheDir == "" {
		return nil, errors.New("NEO_CACHE_DIR must not be empty")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// RequireAPIKey fails fast when a command needs feed access but no
// credential is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return errors.New("NASA_API_KEY environment variable not set")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
