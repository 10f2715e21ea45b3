package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Upstream OCR/accounts backend (single base URL)
	BackendAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience. MaxRetries defaults to 0: a failed backend call
	// surfaces immediately to the caller instead of being retried.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int // bulkhead for concurrent image processing

	// Caches
	SessionTTL    time.Duration
	StatsCacheTTL time.Duration

	// Image pre-processing bounds
	MaxImageBytes     int
	MaxImageDimension int
	ContrastFactor    float64

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendAPIURL: getEnv("BACKEND_API_URL", "http://localhost:5001"),

		// OCR extraction is slow; give uploads room to finish.
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 0),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		SessionTTL:    getEnvDuration("SESSION_TTL", 30*time.Minute),
		StatsCacheTTL: getEnvDuration("STATS_CACHE_TTL", time.Minute),

		MaxImageBytes:     getEnvInt("MAX_IMAGE_BYTES", 512<<10),
		MaxImageDimension: getEnvInt("MAX_IMAGE_DIMENSION", 1024),
		ContrastFactor:    getEnvFloat("CONTRAST_FACTOR", 1.3),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
