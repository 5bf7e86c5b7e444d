// Package config loads and validates the orchestrator configuration from a
// YAML file with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Durations are expressed as plain
// integers in the file (seconds or milliseconds as named) so operators never
// fight duration syntax; the accessor methods return time.Duration.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Broker struct {
		Driver          string `yaml:"driver"` // "sim" is the only in-tree driver
		ConnectAttempts int    `yaml:"connect_attempts"`
		RetryDelaySec   int    `yaml:"retry_delay_sec"`
		RequestsPerSec  int    `yaml:"requests_per_sec"`
	} `yaml:"broker"`

	Ledger struct {
		Driver string `yaml:"driver"` // "sqlite", "postgres" or "memory"
		DSN    string `yaml:"dsn"`
	} `yaml:"ledger"`

	Assets struct {
		Allowed   []string `yaml:"allowed"`
		MinPayout float64  `yaml:"min_payout"`
	} `yaml:"assets"`

	Cycle struct {
		EntrySecond        int `yaml:"entry_second"` // -1 disables the wait
		DurationSec        int `yaml:"duration_sec"`
		LegAttempts        int `yaml:"leg_attempts"`
		LegRetryDelaySec   int `yaml:"leg_retry_delay_sec"`
		SettlementGraceSec int `yaml:"settlement_grace_sec"`
		PollIntervalMS     int `yaml:"poll_interval_ms"`
	} `yaml:"cycle"`

	Scheduler struct {
		BatchSize   int `yaml:"batch_size"`
		IntervalSec int `yaml:"interval_sec"`
	} `yaml:"scheduler"`

	Risk struct {
		EnforceStopLoss bool `yaml:"enforce_stop_loss"`
	} `yaml:"risk"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Metrics struct {
		Addr string `yaml:"addr"` // empty disables the endpoint
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Log.Level = "info"
	c.Broker.Driver = "sim"
	c.Broker.ConnectAttempts = 3
	c.Broker.RetryDelaySec = 1
	c.Broker.RequestsPerSec = 5
	c.Ledger.Driver = "sqlite"
	c.Ledger.DSN = "ladderbot.db"
	c.Assets.MinPayout = 80
	c.Cycle.EntrySecond = 59
	c.Cycle.DurationSec = 60
	c.Cycle.LegAttempts = 3
	c.Cycle.LegRetryDelaySec = 1
	c.Cycle.SettlementGraceSec = 30
	c.Cycle.PollIntervalMS = 500
	c.Scheduler.BatchSize = 20
	c.Scheduler.IntervalSec = 60
	return c
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A .env file next to the process is honored when
// present.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(buf, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Secrets never live in the YAML file.
	_ = godotenv.Load()
	if v := os.Getenv("LADDERBOT_DB_DSN"); v != "" {
		c.Ledger.DSN = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate fails fast on configuration the orchestrator must not start with.
func (c *Config) Validate() error {
	switch c.Broker.Driver {
	case "sim":
	default:
		return fmt.Errorf("unknown broker driver %q", c.Broker.Driver)
	}
	switch c.Ledger.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}
	if c.Ledger.Driver != "memory" && c.Ledger.DSN == "" {
		return fmt.Errorf("ledger driver %q requires a dsn", c.Ledger.Driver)
	}
	if c.Assets.MinPayout < 0 || c.Assets.MinPayout > 100 {
		return fmt.Errorf("min_payout %v out of range", c.Assets.MinPayout)
	}
	if c.Cycle.EntrySecond > 59 {
		return fmt.Errorf("entry_second %d out of range", c.Cycle.EntrySecond)
	}
	if c.Cycle.DurationSec <= 0 {
		return fmt.Errorf("duration_sec must be positive")
	}
	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram token set without chat_id")
	}
	return nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Broker.RetryDelaySec) * time.Second
}

func (c *Config) Duration() time.Duration {
	return time.Duration(c.Cycle.DurationSec) * time.Second
}

func (c *Config) LegRetryDelay() time.Duration {
	return time.Duration(c.Cycle.LegRetryDelaySec) * time.Second
}

func (c *Config) SettlementGrace() time.Duration {
	return time.Duration(c.Cycle.SettlementGraceSec) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Cycle.PollIntervalMS) * time.Millisecond
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalSec) * time.Second
}
