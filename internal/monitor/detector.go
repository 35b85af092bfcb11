package monitor

import (
	"time"

	"github.com/rewired-gh/btcsentry/internal/models"
	"github.com/rewired-gh/btcsentry/pkg/hashset"
)

// IsNew reports whether a market opened within [0, window] of now and has not
// been alerted yet. Pure function of its arguments. A negative elapsed time
// (clock skew or a market that has not opened) excludes the market without
// being an error, as does one already past its close.
func IsNew(market models.Market, now time.Time, window time.Duration, notified hashset.Set[string]) bool {
	if !market.Active || market.Closed {
		return false
	}
	if notified.Has(market.ID) {
		return false
	}
	if now.After(market.CloseTime) {
		return false
	}
	elapsed := now.Sub(market.StartTime)
	return elapsed >= 0 && elapsed <= window
}
