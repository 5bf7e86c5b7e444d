package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, 80.0, c.Assets.MinPayout)
	assert.Equal(t, 59, c.Cycle.EntrySecond)
	assert.Equal(t, 20, c.Scheduler.BatchSize)
	assert.Equal(t, time.Minute, c.Duration())
	assert.Equal(t, 500*time.Millisecond, c.PollInterval())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
ledger:
  driver: memory
assets:
  allowed: [EURUSD, GBPJPY]
  min_payout: 85
cycle:
  entry_second: -1
  duration_sec: 120
scheduler:
  batch_size: 5
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "memory", c.Ledger.Driver)
	assert.Equal(t, []string{"EURUSD", "GBPJPY"}, c.Assets.Allowed)
	assert.Equal(t, -1, c.Cycle.EntrySecond)
	assert.Equal(t, 2*time.Minute, c.Duration())
	assert.Equal(t, 5, c.Scheduler.BatchSize)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, c.Broker.ConnectAttempts)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LADDERBOT_DB_DSN", "/tmp/override.db")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", c.Ledger.DSN)
	assert.Equal(t, "123:abc", c.Telegram.Token)
	assert.Equal(t, int64(42), c.Telegram.ChatID)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown broker driver", func(c *Config) { c.Broker.Driver = "quantum" }},
		{"unknown ledger driver", func(c *Config) { c.Ledger.Driver = "csv" }},
		{"missing dsn", func(c *Config) { c.Ledger.DSN = "" }},
		{"payout out of range", func(c *Config) { c.Assets.MinPayout = 150 }},
		{"entry second out of range", func(c *Config) { c.Cycle.EntrySecond = 61 }},
		{"zero duration", func(c *Config) { c.Cycle.DurationSec = 0 }},
		{"zero batch", func(c *Config) { c.Scheduler.BatchSize = 0 }},
		{"token without chat", func(c *Config) { c.Telegram.Token = "123:abc" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mut(c)
			require.Error(t, c.Validate())
		})
	}
}
