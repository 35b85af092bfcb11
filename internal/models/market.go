// Package models defines the core domain entities: markets, price points, and predictions.
package models

import (
	"errors"
	"time"
)

// Market is an immutable snapshot of a single 15-minute BTC up/down market,
// re-fetched on every poll. StartTime is derived from CloseTime because the
// Gamma API only exposes when a market closes.
type Market struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Question        string    `json:"question"`
	StartTime       time.Time `json:"start_time"`
	CloseTime       time.Time `json:"close_time"`
	UpProbability   float64   `json:"up_probability"`
	DownProbability float64   `json:"down_probability"`
	Volume          float64   `json:"volume"`
	Active          bool      `json:"active"`
	Closed          bool      `json:"closed"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Validate checks market field constraints.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.StartTime.IsZero() || m.CloseTime.IsZero() {
		return errors.New("market start and close times must be set")
	}
	if !m.StartTime.Before(m.CloseTime) {
		return errors.New("market start time must precede close time")
	}
	if m.UpProbability < 0.0 || m.UpProbability > 1.0 {
		return errors.New("up probability must be between 0.0 and 1.0")
	}
	if m.DownProbability < 0.0 || m.DownProbability > 1.0 {
		return errors.New("down probability must be between 0.0 and 1.0")
	}
	sum := m.UpProbability + m.DownProbability
	if sum < 0.99 || sum > 1.01 {
		return errors.New("up + down probability should approximately equal 1.0")
	}
	if m.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	return nil
}

// PricePoint is a BTC spot reading with its 24-hour percent change.
type PricePoint struct {
	Price     float64   `json:"price"`
	Change24h float64   `json:"change_24h"`
	FetchedAt time.Time `json:"fetched_at"`
}
