// Package daemon manages the powergram daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Bot     BotConfig     `toml:"bot"`
	Monitor MonitorConfig `toml:"monitor"`
	Sensors SensorsConfig `toml:"sensors"`
	API     APIConfig     `toml:"api"`
}

// BotConfig controls the Telegram transport and admin bootstrap.
type BotConfig struct {
	Token       string `toml:"token"`
	AdminChatID int64  `toml:"admin_chat_id"`
	EnableShell bool   `toml:"enable_shell"`
}

// MonitorConfig controls the poll loop and alert thresholds.
type MonitorConfig struct {
	CheckIntervalSec int `toml:"check_interval_sec"`
	AlertThreshold   int `toml:"alert_threshold"`
	AlertHysteresis  int `toml:"alert_hysteresis"`
}

// Interval returns the poll interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.CheckIntervalSec) * time.Second
}

// SensorsConfig controls the lm-sensors source.
type SensorsConfig struct {
	Disable bool `toml:"disable"`
}

// APIConfig controls the local HTTP status server.
type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// DefaultConfig returns sensible defaults. The bot token has no
// default; it must come from the config file or BOT_TOKEN.
func DefaultConfig() Config {
	return Config{
		Monitor: MonitorConfig{
			CheckIntervalSec: 60,
			AlertThreshold:   20,
			AlertHysteresis:  25,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Metrics: true,
		},
	}
}

// LoadConfig reads config from <home>/config.toml, falling back to
// defaults, then applies environment overrides (the env names match
// the original deployment: BOT_TOKEN, ADMIN_CHAT_ID,
// ENABLE_UNSAFE_SHELL, CHECK_INTERVAL_SEC, ALERT_THRESHOLD,
// ALERT_HYSTERESIS, DISABLE_SENSORS).
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(Home(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.Monitor.AlertThreshold >= c.Monitor.AlertHysteresis {
		return fmt.Errorf("alert_threshold (%d) must be below alert_hysteresis (%d)",
			c.Monitor.AlertThreshold, c.Monitor.AlertHysteresis)
	}
	if c.Monitor.CheckIntervalSec <= 0 {
		return fmt.Errorf("check_interval_sec must be positive, got %d", c.Monitor.CheckIntervalSec)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Bot.AdminChatID = id
		}
	}
	if v := os.Getenv("ENABLE_UNSAFE_SHELL"); v != "" {
		cfg.Bot.EnableShell = envBool(v)
	}
	if v := os.Getenv("CHECK_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.CheckIntervalSec = n
		}
	}
	if v := os.Getenv("ALERT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.AlertThreshold = n
		}
	}
	if v := os.Getenv("ALERT_HYSTERESIS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.AlertHysteresis = n
		}
	}
	if v := os.Getenv("DISABLE_SENSORS"); v != "" {
		cfg.Sensors.Disable = envBool(v)
	}
}

func envBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Home returns the powergram data directory.
func Home() string {
	if env := os.Getenv("POWERGRAM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".powergram")
}
