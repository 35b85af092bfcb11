package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rewired-gh/btcsentry/internal/coingecko"
	"github.com/rewired-gh/btcsentry/internal/config"
	"github.com/rewired-gh/btcsentry/internal/logger"
	"github.com/rewired-gh/btcsentry/internal/monitor"
	"github.com/rewired-gh/btcsentry/internal/notify"
	"github.com/rewired-gh/btcsentry/internal/polymarket"
	"github.com/rewired-gh/btcsentry/internal/predictor"
	"github.com/rewired-gh/btcsentry/internal/storage"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Optional .env for local runs; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	journal, err := storage.New(cfg.Storage.MaxMarkets, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Error("Failed to close journal: %v", err)
		}
	}()

	marketClient := polymarket.NewClient(
		cfg.Polymarket.GammaAPIURL,
		cfg.Polymarket.Tag,
		cfg.Polymarket.Limit,
		cfg.Monitor.MarketDuration,
		cfg.Polymarket.Timeout,
		cfg.Polymarket.MaxRetries,
		cfg.Polymarket.RetryDelayBase,
	)

	priceClient := coingecko.NewClient(
		cfg.CoinGecko.APIURL,
		cfg.CoinGecko.Timeout,
		cfg.CoinGecko.MaxRetries,
		cfg.CoinGecko.RetryDelayBase,
	)

	engine := predictor.New(predictor.Config{
		MinVolume:         cfg.Predictor.MinVolume,
		MomentumStrong:    cfg.Predictor.MomentumStrong,
		MomentumWeak:      cfg.Predictor.MomentumWeak,
		StrongWeight:      cfg.Predictor.StrongWeight,
		WeakWeight:        cfg.Predictor.WeakWeight,
		SentimentWeight:   cfg.Predictor.SentimentWeight,
		ConfidenceScale:   cfg.Predictor.ConfidenceScale,
		RiskConfidenceCap: cfg.Predictor.RiskConfidenceCap,
	})

	notifier, err := buildNotifier(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize notification sinks: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Display.Timezone)
	if err != nil {
		logger.Fatal("Failed to load display timezone: %v", err)
	}

	mon := monitor.New(marketClient, priceClient, engine, notifier, journal, monitor.Config{
		NewMarketWindow: cfg.Monitor.NewMarketWindow,
		DisplayLocation: loc,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping at next tick...")
		cancel()
	}()

	logger.Info("Starting BTC 15m market sentry (interval: %v, window: %v, tag: %s)",
		cfg.Monitor.PollInterval,
		cfg.Monitor.NewMarketWindow,
		cfg.Polymarket.Tag,
	)

	ticker := time.NewTicker(cfg.Monitor.PollInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Poll cycle failed (%d consecutive): %v", consecutiveFailures, err)
		} else {
			if consecutiveFailures > 0 {
				logger.Info("Poll cycle recovered after %d consecutive failure(s)", consecutiveFailures)
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial poll cycle")
	handleCycleResult(mon.RunCycle(ctx))

	// Cycles run strictly sequentially: a tick is only honored after the
	// previous cycle has returned.
	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped (%d markets alerted this run)", mon.NotifiedCount())
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled poll cycle")
			handleCycleResult(mon.RunCycle(ctx))
			if err := journal.RotateMarkets(); err != nil {
				logger.Warn("Failed to rotate journaled markets: %v", err)
			}
		}
	}
}

// buildNotifier assembles the configured sinks. Validation guarantees at
// least one is enabled.
func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	var sinks []notify.Notifier

	if cfg.Notify.WebhookEnabled {
		sinks = append(sinks, notify.NewWebhookClient(
			cfg.Notify.WebhookURL,
			cfg.Notify.Timeout,
			cfg.Notify.MaxRetries,
			cfg.Notify.RetryDelayBase,
		))
	}

	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramClient(
			cfg.Notify.Telegram.BotToken,
			cfg.Notify.Telegram.ChatID,
			cfg.Notify.MaxRetries,
			cfg.Notify.RetryDelayBase,
		)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return notify.NewMultiNotifier(sinks...), nil
}
