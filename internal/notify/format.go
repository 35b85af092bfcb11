// Package notify formats market alerts and delivers them to the configured sinks.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/btcsentry/internal/models"
)

const eventURLBase = "https://polymarket.com/event/"

// Format renders the alert text for a freshly opened market. Pure function of
// its inputs: identical arguments always produce identical output, and any
// well-formed prediction renders without error. Times are displayed in loc.
func Format(market models.Market, pred models.Prediction, price models.PricePoint, now time.Time, loc *time.Location) string {
	start := market.StartTime.In(loc)
	closeAt := market.CloseTime.In(loc)

	remaining := market.CloseTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	running := now.Sub(market.StartTime)
	if running < 0 {
		running = 0
	}

	slug := market.Slug
	if slug == "" {
		slug = "unknown"
	}

	momentumMark := "down"
	if price.Change24h > 0 {
		momentumMark = "up"
	}

	var b strings.Builder
	b.WriteString("NEW MARKET STARTED\n\n")
	fmt.Fprintf(&b, "Started at: %s %s\n\n", start.Format("15:04:05"), start.Format("MST"))
	fmt.Fprintf(&b, "%s%s\n\n", eventURLBase, slug)

	fmt.Fprintf(&b, "Prediction: %s (confidence %d/100)\n\n", pred.Direction, pred.Confidence)

	b.WriteString("Analysis:\n")
	for _, f := range pred.Factors {
		fmt.Fprintf(&b, "  - %s\n", f.Detail)
	}
	b.WriteString("\n")

	b.WriteString("Market conditions:\n")
	fmt.Fprintf(&b, "  - BTC: $%.0f (%+.2f%% 24h, %s)\n", price.Price, price.Change24h, momentumMark)
	fmt.Fprintf(&b, "  - Odds: %.0f%% UP / %.0f%% DOWN\n", market.UpProbability*100, market.DownProbability*100)
	fmt.Fprintf(&b, "  - Volume: $%.0f\n\n", market.Volume)

	b.WriteString("Timing:\n")
	fmt.Fprintf(&b, "  - Started: %s\n", start.Format("15:04"))
	fmt.Fprintf(&b, "  - Closes: %s\n", closeAt.Format("15:04"))
	fmt.Fprintf(&b, "  - Time to close: %.1f minutes\n", remaining.Minutes())
	fmt.Fprintf(&b, "  - Running: %.1f minutes\n", running.Minutes())

	if pred.Risky {
		b.WriteString("\nWARNING: low volume, high risk\n")
	}

	return b.String()
}
