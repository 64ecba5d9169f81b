// Package daemon runs the long-lived mortd process: it owns the database,
// the HTTP API, the reconcile sweep, and idempotency-key pruning.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Fees      FeesConfig      `toml:"fees"`
	Reconcile ReconcileConfig `toml:"reconcile"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// StorageConfig controls where the database lives.
type StorageConfig struct {
	// DataDir holds the SQLite database and the instance lock. Empty means
	// ~/.mortd.
	DataDir string `toml:"data_dir"`
	// IdempotencyRetention is how long dedup keys are kept, as a Go
	// duration string.
	IdempotencyRetention string `toml:"idempotency_retention"`
}

// FeesConfig controls ledger defaults.
type FeesConfig struct {
	Currency             string `toml:"currency"`
	DefaultPaymentMethod string `toml:"default_payment_method"`
	UpcomingWindowDays   int    `toml:"upcoming_window_days"`
}

// ReconcileConfig controls the torn-transition sweep.
type ReconcileConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:          "127.0.0.1",
			Port:          8090,
			EnableMetrics: true,
		},
		Storage: StorageConfig{
			DataDir:              "",
			IdempotencyRetention: "72h",
		},
		Fees: FeesConfig{
			Currency:             "GBP",
			DefaultPaymentMethod: "Bank Transfer",
			UpcomingWindowDays:   30,
		},
		Reconcile: ReconcileConfig{
			Enabled:  true,
			Interval: "15m",
		},
	}
}

// LoadConfig reads the TOML config at path, layered over the defaults.
// A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath returns ~/.mortd/config.toml.
func DefaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// ResolvedDataDir returns the configured data dir, or ~/.mortd when unset.
func (c Config) ResolvedDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return defaultDataDir()
}

// ListenAddr returns the host:port the API binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// IdempotencyRetention parses the retention window, falling back to 72h.
func (c Config) IdempotencyRetention() time.Duration {
	return parseDuration(c.Storage.IdempotencyRetention, 72*time.Hour)
}

// ReconcileInterval parses the sweep interval, falling back to 15m.
func (c Config) ReconcileInterval() time.Duration {
	return parseDuration(c.Reconcile.Interval, 15*time.Minute)
}

// UpcomingWindow converts the configured day count to a duration.
func (c Config) UpcomingWindow() time.Duration {
	days := c.Fees.UpcomingWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mortd"
	}
	return filepath.Join(home, ".mortd")
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
