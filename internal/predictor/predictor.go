// Package predictor implements the deterministic UP/DOWN heuristic for
// freshly opened BTC 15-minute markets.
package predictor

import (
	"fmt"
	"math"

	"github.com/rewired-gh/btcsentry/internal/models"
)

// Config holds the named weights and thresholds of the heuristic. All
// behavior is a pure function of these values and the inputs.
type Config struct {
	// MinVolume is the traded-volume floor below which a market is flagged
	// risky and its confidence capped.
	MinVolume float64
	// MomentumStrong and MomentumWeak are the |24h change| percent tiers.
	MomentumStrong float64
	MomentumWeak   float64
	// StrongWeight and WeakWeight are the scores the momentum tiers carry.
	StrongWeight float64
	WeakWeight   float64
	// SentimentWeight scales the crowd odds skew (up − down, in [-1,1]).
	SentimentWeight float64
	// ConfidenceScale converts signal agreement into confidence points.
	ConfidenceScale float64
	// RiskConfidenceCap bounds confidence for risky markets.
	RiskConfidenceCap int
}

func DefaultConfig() Config {
	return Config{
		MinVolume:         1000,
		MomentumStrong:    2.0,
		MomentumWeak:      0.5,
		StrongWeight:      2.0,
		WeakWeight:        1.0,
		SentimentWeight:   2.0,
		ConfidenceScale:   15.0,
		RiskConfidenceCap: 40,
	}
}

const neutralConfidence = 50

// Engine computes predictions. Stateless; safe for reuse across cycles.
type Engine struct {
	config Config
}

func New(config Config) *Engine {
	return &Engine{config: config}
}

// Predict combines the momentum and sentiment signals into a directional
// call. It never fails on well-formed inputs: direction is always UP or DOWN
// and confidence is always within [0,100].
func (e *Engine) Predict(market models.Market, price models.PricePoint) models.Prediction {
	momentum := e.momentumSignal(price.Change24h)
	sentiment := e.sentimentSignal(market.UpProbability, market.DownProbability)

	direction := chooseDirection(momentum.Weight, sentiment.Weight)

	confidence := neutralConfidence +
		agreement(momentum.Weight, direction)*e.config.ConfidenceScale +
		agreement(sentiment.Weight, direction)*e.config.ConfidenceScale
	conf := clampConfidence(int(math.Round(confidence)))

	risky := market.Volume < e.config.MinVolume
	volumeFactor := e.volumeSignal(market.Volume)
	if risky && conf > e.config.RiskConfidenceCap {
		conf = e.config.RiskConfidenceCap
	}

	return models.Prediction{
		Direction:  direction,
		Confidence: conf,
		Factors:    []models.Factor{momentum, sentiment, volumeFactor},
		Risky:      risky,
	}
}

// momentumSignal maps the 24h percent change onto a tiered directional score.
func (e *Engine) momentumSignal(change24h float64) models.Factor {
	var weight float64
	var detail string

	switch {
	case change24h > e.config.MomentumStrong:
		weight = e.config.StrongWeight
		detail = fmt.Sprintf("BTC strong bullish momentum (+%.2f%% 24h)", change24h)
	case change24h > e.config.MomentumWeak:
		weight = e.config.WeakWeight
		detail = fmt.Sprintf("BTC bullish (+%.2f%% 24h)", change24h)
	case change24h < -e.config.MomentumStrong:
		weight = -e.config.StrongWeight
		detail = fmt.Sprintf("BTC strong bearish momentum (%.2f%% 24h)", change24h)
	case change24h < -e.config.MomentumWeak:
		weight = -e.config.WeakWeight
		detail = fmt.Sprintf("BTC bearish (%.2f%% 24h)", change24h)
	default:
		detail = fmt.Sprintf("BTC neutral (%.2f%% 24h)", change24h)
	}

	return models.Factor{Label: "momentum", Weight: weight, Detail: detail}
}

// sentimentSignal scores the crowd odds skew from 50/50, proportional to its
// magnitude.
func (e *Engine) sentimentSignal(upProb, downProb float64) models.Factor {
	skew := upProb - downProb
	weight := skew * e.config.SentimentWeight

	var detail string
	switch {
	case skew > 0:
		detail = fmt.Sprintf("Crowd leans UP (%.0f%% vs %.0f%%)", upProb*100, downProb*100)
	case skew < 0:
		detail = fmt.Sprintf("Crowd leans DOWN (%.0f%% vs %.0f%%)", upProb*100, downProb*100)
	default:
		detail = fmt.Sprintf("Crowd neutral (%.0f%% vs %.0f%%)", upProb*100, downProb*100)
	}

	return models.Factor{Label: "sentiment", Weight: weight, Detail: detail}
}

// volumeSignal carries no direction; it only documents the liquidity tier.
func (e *Engine) volumeSignal(volume float64) models.Factor {
	detail := fmt.Sprintf("Volume $%.0f", volume)
	if volume < e.config.MinVolume {
		detail = fmt.Sprintf("Low volume ($%.0f, below $%.0f floor)", volume, e.config.MinVolume)
	}
	return models.Factor{Label: "volume", Weight: 0, Detail: detail}
}

// chooseDirection picks the sign of the combined signal. An exactly-zero
// combination defers to whichever signal has the larger absolute weight; a
// fully tied result resolves to UP. Fixed deterministic rule.
func chooseDirection(momentum, sentiment float64) models.Direction {
	combined := momentum + sentiment
	switch {
	case combined > 0:
		return models.DirectionUp
	case combined < 0:
		return models.DirectionDown
	}

	var dominant float64
	switch {
	case math.Abs(momentum) > math.Abs(sentiment):
		dominant = momentum
	case math.Abs(sentiment) > math.Abs(momentum):
		dominant = sentiment
	}
	if dominant < 0 {
		return models.DirectionDown
	}
	return models.DirectionUp
}

// agreement returns |weight| when the signal points with the chosen
// direction, -|weight| when it opposes it, and 0 for a silent signal.
func agreement(weight float64, direction models.Direction) float64 {
	if weight == 0 {
		return 0
	}
	points := models.DirectionUp
	if weight < 0 {
		points = models.DirectionDown
	}
	if points == direction {
		return math.Abs(weight)
	}
	return -math.Abs(weight)
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
