package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Monitor.AlertThreshold != 20 {
		t.Errorf("threshold = %d, want 20", cfg.Monitor.AlertThreshold)
	}
	if cfg.Monitor.AlertHysteresis != 25 {
		t.Errorf("hysteresis = %d, want 25", cfg.Monitor.AlertHysteresis)
	}
	if cfg.Monitor.CheckIntervalSec != 60 {
		t.Errorf("interval = %d, want 60", cfg.Monitor.CheckIntervalSec)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestValidateThresholdInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitor.AlertThreshold = 25
	cfg.Monitor.AlertHysteresis = 25
	if err := cfg.Validate(); err == nil {
		t.Error("threshold == hysteresis must be rejected")
	}

	cfg.Monitor.AlertThreshold = 30
	if err := cfg.Validate(); err == nil {
		t.Error("threshold > hysteresis must be rejected")
	}
}

func TestValidateInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitor.CheckIntervalSec = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero interval must be rejected")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("POWERGRAM_HOME", home)
	t.Setenv("BOT_TOKEN", "") // empty env vars never override

	content := `
[bot]
token = "123:abc"
admin_chat_id = 4242

[monitor]
check_interval_sec = 30
alert_threshold = 15
alert_hysteresis = 30
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bot.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if cfg.Bot.AdminChatID != 4242 {
		t.Errorf("admin = %d, want 4242", cfg.Bot.AdminChatID)
	}
	if cfg.Monitor.CheckIntervalSec != 30 {
		t.Errorf("interval = %d, want 30", cfg.Monitor.CheckIntervalSec)
	}
	// Untouched sections keep defaults.
	if cfg.API.Port != 8090 {
		t.Errorf("port = %d, want 8090", cfg.API.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("POWERGRAM_HOME", home)
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("ALERT_THRESHOLD", "10")
	t.Setenv("ENABLE_UNSAFE_SHELL", "yes")
	t.Setenv("DISABLE_SENSORS", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bot.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Bot.Token)
	}
	if cfg.Monitor.AlertThreshold != 10 {
		t.Errorf("threshold = %d, want 10", cfg.Monitor.AlertThreshold)
	}
	if !cfg.Bot.EnableShell {
		t.Error("ENABLE_UNSAFE_SHELL=yes must enable the shell")
	}
	if !cfg.Sensors.Disable {
		t.Error("DISABLE_SENSORS=1 must disable sensors")
	}
}

func TestLoadConfigRejectsBadInvariant(t *testing.T) {
	home := t.TempDir()
	t.Setenv("POWERGRAM_HOME", home)
	t.Setenv("ALERT_THRESHOLD", "30")
	t.Setenv("ALERT_HYSTERESIS", "25")

	if _, err := LoadConfig(); err == nil {
		t.Error("threshold above hysteresis must fail LoadConfig")
	}
}

func TestHomeEnvOverride(t *testing.T) {
	t.Setenv("POWERGRAM_HOME", "/tmp/pg-test")
	if got := Home(); got != "/tmp/pg-test" {
		t.Errorf("Home() = %q", got)
	}
}
