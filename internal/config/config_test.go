package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

const validConfig = `
polymarket:
  tag: btc-15m
  limit: 50

monitor:
  poll_interval: 120s
  new_market_window: 3m

predictor:
  min_volume: 1000

notify:
  webhook_enabled: true
  webhook_url: "https://hooks.example.com/nebula"

display:
  timezone: "Asia/Jakarta"

storage:
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Monitor.PollInterval != 120*time.Second {
		t.Errorf("Expected poll interval 120s, got %v", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.NewMarketWindow != 3*time.Minute {
		t.Errorf("Expected window 3m, got %v", cfg.Monitor.NewMarketWindow)
	}
	if cfg.Notify.WebhookURL != "https://hooks.example.com/nebula" {
		t.Errorf("Unexpected webhook URL: %s", cfg.Notify.WebhookURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
notify:
  webhook_url: "https://hooks.example.com/nebula"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed with defaults: %v", err)
	}

	if cfg.Polymarket.GammaAPIURL != "https://gamma-api.polymarket.com" {
		t.Errorf("Unexpected default gamma URL: %s", cfg.Polymarket.GammaAPIURL)
	}
	if cfg.Polymarket.Tag != "btc-15m" {
		t.Errorf("Unexpected default tag: %s", cfg.Polymarket.Tag)
	}
	if cfg.Monitor.PollInterval != 120*time.Second {
		t.Errorf("Expected default poll interval 120s, got %v", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.MarketDuration != 15*time.Minute {
		t.Errorf("Expected default market duration 15m, got %v", cfg.Monitor.MarketDuration)
	}
	if cfg.Predictor.MinVolume != 1000 {
		t.Errorf("Expected default min volume 1000, got %.0f", cfg.Predictor.MinVolume)
	}
	if cfg.Display.Timezone != "Asia/Jakarta" {
		t.Errorf("Expected default timezone Asia/Jakarta, got %s", cfg.Display.Timezone)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing webhook url", func(c *Config) { c.Notify.WebhookURL = "" }},
		{"no sink enabled", func(c *Config) {
			c.Notify.WebhookEnabled = false
			c.Notify.Telegram.Enabled = false
		}},
		{"telegram without token", func(c *Config) {
			c.Notify.Telegram.Enabled = true
			c.Notify.Telegram.ChatID = "123"
		}},
		{"poll interval too small", func(c *Config) { c.Monitor.PollInterval = time.Second }},
		{"non-positive window", func(c *Config) { c.Monitor.NewMarketWindow = 0 }},
		{"duration not above window", func(c *Config) { c.Monitor.MarketDuration = 2 * time.Minute }},
		{"negative min volume", func(c *Config) { c.Predictor.MinVolume = -1 }},
		{"inverted momentum tiers", func(c *Config) { c.Predictor.MomentumStrong = 0.1 }},
		{"bad timezone", func(c *Config) { c.Display.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"limit out of range", func(c *Config) { c.Polymarket.Limit = 0 }},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, validConfig)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}
