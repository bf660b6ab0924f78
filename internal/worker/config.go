// Package worker provides scheduled and queue-triggered execution of check
// cycles.
package worker

import (
	"os"
	"strconv"
	"time"
)

// CycleConfig holds configuration for the cycle runner.
type CycleConfig struct {
	// Interval between scheduled cycles.
	// Default: 5 minutes
	Interval time.Duration

	// PoolSize caps the number of concurrently open rendering sessions.
	// Default: 5
	PoolSize int

	// ProbeTimeout bounds the network probe of each check.
	// Default: 10 seconds
	ProbeTimeout time.Duration

	// RenderTimeout bounds page navigation inside a rendering session.
	// Default: 30 seconds
	RenderTimeout time.Duration

	// SettleDelay is the fixed wait after navigation before the page is
	// inspected.
	// Default: 2 seconds
	SettleDelay time.Duration

	// StatsWindow is the number of recent outcomes rolling stats cover.
	// Default: 100
	StatsWindow int
}

// DefaultCycleConfig returns the default cycle runner configuration.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		Interval:      5 * time.Minute,
		PoolSize:      5,
		ProbeTimeout:  10 * time.Second,
		RenderTimeout: 30 * time.Second,
		SettleDelay:   2 * time.Second,
		StatsWindow:   100,
	}
}

// ConfigFromEnv builds a CycleConfig from environment variables, falling
// back to defaults for unset or unparseable values.
func ConfigFromEnv() CycleConfig {
	cfg := DefaultCycleConfig()

	if v := os.Getenv("CYCLE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Interval = d
		}
	}
	if v := os.Getenv("CYCLE_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PoolSize = n
		}
	}
	if v := os.Getenv("CHECK_PROBE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProbeTimeout = d
		}
	}
	if v := os.Getenv("CHECK_RENDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RenderTimeout = d
		}
	}
	if v := os.Getenv("CHECK_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SettleDelay = d
		}
	}
	if v := os.Getenv("STATS_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StatsWindow = n
		}
	}
	return cfg
}
