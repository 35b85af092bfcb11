// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	CoinGecko  CoinGeckoConfig  `mapstructure:"coingecko"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Predictor  PredictorConfig  `mapstructure:"predictor"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Display    DisplayConfig    `mapstructure:"display"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PolymarketConfig holds Polymarket Gamma API configuration.
type PolymarketConfig struct {
	GammaAPIURL    string        `mapstructure:"gamma_api_url"`
	Tag            string        `mapstructure:"tag"`
	Limit          int           `mapstructure:"limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// CoinGeckoConfig holds BTC spot price feed configuration.
type CoinGeckoConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MonitorConfig holds poll loop and new-market detection configuration.
type MonitorConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	NewMarketWindow time.Duration `mapstructure:"new_market_window"`
	MarketDuration  time.Duration `mapstructure:"market_duration"`
}

// PredictorConfig holds the heuristic weights and thresholds.
type PredictorConfig struct {
	MinVolume         float64 `mapstructure:"min_volume"`
	MomentumStrong    float64 `mapstructure:"momentum_strong"`
	MomentumWeak      float64 `mapstructure:"momentum_weak"`
	StrongWeight      float64 `mapstructure:"strong_weight"`
	WeakWeight        float64 `mapstructure:"weak_weight"`
	SentimentWeight   float64 `mapstructure:"sentiment_weight"`
	ConfidenceScale   float64 `mapstructure:"confidence_scale"`
	RiskConfidenceCap int     `mapstructure:"risk_confidence_cap"`
}

// NotifyConfig holds notification sink configuration.
type NotifyConfig struct {
	WebhookEnabled bool           `mapstructure:"webhook_enabled"`
	WebhookURL     string         `mapstructure:"webhook_url"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	MaxRetries     int            `mapstructure:"max_retries"`
	RetryDelayBase time.Duration  `mapstructure:"retry_delay_base"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds the optional Telegram sink configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// DisplayConfig holds presentation settings for formatted alerts.
type DisplayConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// StorageConfig holds the alert journal configuration.
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path"`
	MaxMarkets int    `mapstructure:"max_markets"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("BTC_SENTRY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.tag", "btc-15m")
	v.SetDefault("polymarket.limit", 50)
	v.SetDefault("polymarket.timeout", "15s")
	v.SetDefault("polymarket.max_retries", 2)
	v.SetDefault("polymarket.retry_delay_base", "1s")

	v.SetDefault("coingecko.api_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.timeout", "10s")
	v.SetDefault("coingecko.max_retries", 2)
	v.SetDefault("coingecko.retry_delay_base", "1s")

	v.SetDefault("monitor.poll_interval", "120s")
	v.SetDefault("monitor.new_market_window", "3m")
	v.SetDefault("monitor.market_duration", "15m")

	v.SetDefault("predictor.min_volume", 1000.0)
	v.SetDefault("predictor.momentum_strong", 2.0)
	v.SetDefault("predictor.momentum_weak", 0.5)
	v.SetDefault("predictor.strong_weight", 2.0)
	v.SetDefault("predictor.weak_weight", 1.0)
	v.SetDefault("predictor.sentiment_weight", 2.0)
	v.SetDefault("predictor.confidence_scale", 15.0)
	v.SetDefault("predictor.risk_confidence_cap", 40)

	v.SetDefault("notify.webhook_enabled", true)
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("notify.max_retries", 3)
	v.SetDefault("notify.retry_delay_base", "1s")
	v.SetDefault("notify.telegram.enabled", false)

	v.SetDefault("display.timezone", "Asia/Jakarta")

	v.SetDefault("storage.db_path", "./data/btc-sentry.db")
	v.SetDefault("storage.max_markets", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid. The service must
// not start the poll loop if this returns an error.
func (c *Config) Validate() error {
	if c.Polymarket.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if c.Polymarket.Tag == "" {
		return fmt.Errorf("polymarket.tag is required")
	}
	if c.Polymarket.Limit < 1 || c.Polymarket.Limit > 1000 {
		return fmt.Errorf("polymarket.limit must be between 1 and 1000")
	}
	if c.Polymarket.Timeout <= 0 {
		return fmt.Errorf("polymarket.timeout must be positive")
	}
	if c.Polymarket.MaxRetries < 1 {
		return fmt.Errorf("polymarket.max_retries must be at least 1")
	}

	if c.CoinGecko.APIURL == "" {
		return fmt.Errorf("coingecko.api_url is required")
	}
	if c.CoinGecko.Timeout <= 0 {
		return fmt.Errorf("coingecko.timeout must be positive")
	}
	if c.CoinGecko.MaxRetries < 1 {
		return fmt.Errorf("coingecko.max_retries must be at least 1")
	}

	if c.Monitor.PollInterval < 10*time.Second {
		return fmt.Errorf("monitor.poll_interval must be at least 10 seconds")
	}
	if c.Monitor.NewMarketWindow <= 0 {
		return fmt.Errorf("monitor.new_market_window must be positive")
	}
	if c.Monitor.MarketDuration <= c.Monitor.NewMarketWindow {
		return fmt.Errorf("monitor.market_duration must exceed the new-market window")
	}

	if c.Predictor.MinVolume < 0 {
		return fmt.Errorf("predictor.min_volume must not be negative")
	}
	if c.Predictor.MomentumStrong <= c.Predictor.MomentumWeak {
		return fmt.Errorf("predictor.momentum_strong must exceed predictor.momentum_weak")
	}
	if c.Predictor.MomentumWeak <= 0 {
		return fmt.Errorf("predictor.momentum_weak must be positive")
	}
	if c.Predictor.StrongWeight <= 0 || c.Predictor.WeakWeight <= 0 {
		return fmt.Errorf("predictor weights must be positive")
	}
	if c.Predictor.SentimentWeight <= 0 {
		return fmt.Errorf("predictor.sentiment_weight must be positive")
	}
	if c.Predictor.ConfidenceScale <= 0 {
		return fmt.Errorf("predictor.confidence_scale must be positive")
	}
	if c.Predictor.RiskConfidenceCap < 0 || c.Predictor.RiskConfidenceCap > 100 {
		return fmt.Errorf("predictor.risk_confidence_cap must be between 0 and 100")
	}

	if !c.Notify.WebhookEnabled && !c.Notify.Telegram.Enabled {
		return fmt.Errorf("at least one notification sink must be enabled")
	}
	if c.Notify.WebhookEnabled && c.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url is required when the webhook sink is enabled")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be positive")
	}
	if c.Notify.MaxRetries < 1 {
		return fmt.Errorf("notify.max_retries must be at least 1")
	}

	if c.Display.Timezone == "" {
		return fmt.Errorf("display.timezone is required")
	}
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return fmt.Errorf("display.timezone is not a valid IANA timezone: %w", err)
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxMarkets < 1 {
		return fmt.Errorf("storage.max_markets must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
