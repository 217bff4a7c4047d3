// Package config loads the service's environment-variable configuration.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds every process-level setting: the two store connection
// strings and the retry/contention bounds from §5. No other process-level
// state is persisted outside these two stores (§6).
type Config struct {
	// LedgerDSN is the relational store connection string.
	LedgerDSN string
	// FilterStoreURI is the spatial document store connection URI.
	FilterStoreURI string
	// FilterStoreDatabase is the database name within the document store.
	FilterStoreDatabase string

	// LedgerMaxRetries bounds the ledger unique-violation retry loop (§5).
	LedgerMaxRetries int
	// FilterMaxRetries bounds the consumption-filter CAS retry loop (§4.2).
	FilterMaxRetries int

	// MetricsPort serves /metrics for Prometheus scraping.
	MetricsPort int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Load reads Config from the environment, applying defaults where unset.
// LEDGER_DSN and FILTERSTORE_URI have no default: without a store to talk
// to there is nothing useful this process can do, so Load fails fast.
func Load() (*Config, error) {
	cfg := &Config{
		LedgerDSN:           os.Getenv("LEDGER_DSN"),
		FilterStoreURI:      os.Getenv("FILTERSTORE_URI"),
		FilterStoreDatabase: getEnvOrDefault("FILTERSTORE_DATABASE", "inventory"),
		LedgerMaxRetries:    getEnvAsIntOrDefault("LEDGER_MAX_RETRIES", 5),
		FilterMaxRetries:    getEnvAsIntOrDefault("FILTER_MAX_RETRIES", 8),
		MetricsPort:         getEnvAsIntOrDefault("METRICS_PORT", 9090),
		ShutdownTimeout:     getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if cfg.LedgerDSN == "" {
		return nil, fmt.Errorf("LEDGER_DSN is required")
	}
	if cfg.FilterStoreURI == "" {
		return nil, fmt.Errorf("FILTERSTORE_URI is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
