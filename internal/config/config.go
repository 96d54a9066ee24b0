// Package config loads runtime tuning for the ledger engine from the
// environment. Connection details (database URL, port, log level) are carried
// by CLI flags; everything else maps onto this struct via envconfig.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""
)

// Config holds tunable runtime settings.
type Config struct {
	// --- Database pool ---
	DBMaxConns int32 `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32 `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Statement pagination ---
	StatementDefaultPageSize int `envconfig:"STATEMENT_DEFAULT_PAGE_SIZE" default:"20"`
	StatementMaxPageSize     int `envconfig:"STATEMENT_MAX_PAGE_SIZE" default:"100"`

	// --- Window sweeper ---
	// SweepBatchSize bounds the page of expired windows processed per sweep.
	SweepBatchSize int `envconfig:"SWEEP_BATCH_SIZE" default:"100"`
	// SweepSchedule is the cron expression for the sweep-daemon command.
	SweepSchedule string `envconfig:"SWEEP_SCHEDULE" default:"* * * * *"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would break pagination or sweeping.
func (c *Config) Validate() error {
	if c.StatementDefaultPageSize <= 0 || c.StatementDefaultPageSize > c.StatementMaxPageSize {
		return fmt.Errorf("STATEMENT_DEFAULT_PAGE_SIZE must be in 1..%d", c.StatementMaxPageSize)
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be > 0")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	return nil
}
