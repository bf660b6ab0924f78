package worker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitewatch/sitewatch/internal/worker"
)

func TestDefaultCycleConfig(t *testing.T) {
	cfg := worker.DefaultCycleConfig()

	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 5, cfg.PoolSize)
	assert.Equal(t, 10*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 30*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 100, cfg.StatsWindow)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CYCLE_INTERVAL", "1m")
	t.Setenv("CYCLE_POOL_SIZE", "10")
	t.Setenv("CHECK_PROBE_TIMEOUT", "5s")
	t.Setenv("CHECK_RENDER_TIMEOUT", "20s")
	t.Setenv("CHECK_SETTLE_DELAY", "500ms")
	t.Setenv("STATS_WINDOW", "50")

	cfg := worker.ConfigFromEnv()

	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 20*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 50, cfg.StatsWindow)
}

func TestConfigFromEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("CYCLE_INTERVAL", "soon")
	t.Setenv("CYCLE_POOL_SIZE", "-3")
	t.Setenv("STATS_WINDOW", "many")

	cfg := worker.ConfigFromEnv()

	assert.Equal(t, worker.DefaultCycleConfig(), cfg)
}
