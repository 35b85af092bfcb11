// Package monitor orchestrates one poll cycle: market discovery, newness
// detection, prediction, alert delivery, and duplicate suppression.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/btcsentry/internal/coingecko"
	"github.com/rewired-gh/btcsentry/internal/logger"
	"github.com/rewired-gh/btcsentry/internal/models"
	"github.com/rewired-gh/btcsentry/internal/notify"
	"github.com/rewired-gh/btcsentry/internal/predictor"
	"github.com/rewired-gh/btcsentry/pkg/hashset"
)

// MarketSource fetches the current set of active BTC 15-minute markets.
type MarketSource interface {
	FetchMarkets(ctx context.Context) ([]models.Market, error)
}

// PriceSource fetches the current BTC spot price and 24h change.
type PriceSource interface {
	FetchPrice(ctx context.Context) (models.PricePoint, error)
}

// Journal records observed markets and delivered alerts for auditing. May be
// nil; journal failures never fail a cycle.
type Journal interface {
	RecordMarket(market models.Market) error
	RecordAlert(market models.Market, pred models.Prediction, price models.PricePoint, payload string, sentAt time.Time) error
}

// Config holds monitor behavior configuration.
type Config struct {
	// NewMarketWindow bounds how long after its start a market still counts
	// as new (inclusive).
	NewMarketWindow time.Duration
	// DisplayLocation is the timezone alerts are rendered in.
	DisplayLocation *time.Location
}

// Monitor owns the notified set and drives each poll cycle. Cycles run
// strictly sequentially; no locking is needed around the notified set.
type Monitor struct {
	markets  MarketSource
	prices   PriceSource
	engine   *predictor.Engine
	notifier notify.Notifier
	journal  Journal
	config   Config

	// notified holds ids of markets already alerted in this process run.
	// It only grows and is reset on restart.
	notified hashset.Set[string]
}

// New creates a monitor. journal may be nil to disable audit persistence.
func New(markets MarketSource, prices PriceSource, engine *predictor.Engine, notifier notify.Notifier, journal Journal, config Config) *Monitor {
	if config.DisplayLocation == nil {
		config.DisplayLocation = time.UTC
	}
	return &Monitor{
		markets:  markets,
		prices:   prices,
		engine:   engine,
		notifier: notifier,
		journal:  journal,
		config:   config,
		notified: hashset.New[string](),
	}
}

// NotifiedCount reports how many markets have been alerted this run.
func (m *Monitor) NotifiedCount() int {
	return m.notified.Len()
}

// RunCycle executes one Checking phase: fetch markets, detect new ones, and
// alert on each. A market-list fetch failure aborts the cycle; every
// per-market failure is logged and skipped so the rest of the cycle proceeds.
// A market joins the notified set only after its alert is delivered, so a
// failed send stays eligible for retry while the market is still new.
func (m *Monitor) RunCycle(ctx context.Context) error {
	now := time.Now().UTC()

	markets, err := m.markets.FetchMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch markets: %w", err)
	}
	logger.Info("Fetched %d active markets", len(markets))

	newCount := 0
	for _, market := range markets {
		if !IsNew(market, now, m.config.NewMarketWindow, m.notified) {
			continue
		}
		newCount++
		logger.Info("New market detected: %s (running %.1f min)", market.Slug, now.Sub(market.StartTime).Minutes())

		if m.journal != nil {
			if err := m.journal.RecordMarket(market); err != nil {
				logger.Warn("Failed to journal market %s: %v", market.ID, err)
			}
		}

		m.alertMarket(ctx, market, now)
	}

	if newCount == 0 {
		logger.Debug("No new markets this cycle")
	}
	return nil
}

// alertMarket runs the prediction pipeline for one new market.
func (m *Monitor) alertMarket(ctx context.Context, market models.Market, now time.Time) {
	price, err := m.prices.FetchPrice(ctx)
	if err != nil {
		if errors.Is(err, coingecko.ErrUnavailable) {
			logger.Warn("Price data unavailable, skipping market %s this cycle", market.ID)
		} else {
			logger.Warn("Failed to fetch price for market %s: %v", market.ID, err)
		}
		return
	}

	pred := m.engine.Predict(market, price)
	payload := notify.Format(market, pred, price, now, m.config.DisplayLocation)

	if err := m.notifier.Notify(ctx, payload); err != nil {
		logger.Error("Failed to deliver alert for market %s: %v", market.ID, err)
		return
	}

	m.notified.Add(market.ID)
	logger.Info("Alert delivered for market %s: %s (confidence %d)", market.Slug, pred.Direction, pred.Confidence)

	if m.journal != nil {
		if err := m.journal.RecordAlert(market, pred, price, payload, now); err != nil {
			logger.Warn("Failed to journal alert for market %s: %v", market.ID, err)
		}
	}
}
