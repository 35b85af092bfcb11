// Package polymarket provides access to the Polymarket Gamma API.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/btcsentry/internal/models"
)

// Client fetches short-lived BTC up/down events from the Gamma API.
type Client struct {
	gammaAPIURL    string
	tag            string
	limit          int
	marketDuration time.Duration
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// gammaEvent represents an event from the Polymarket Gamma API.
type gammaEvent struct {
	ID         string        `json:"id"`
	Slug       string        `json:"slug"`
	Title      string        `json:"title"`
	Active     bool          `json:"active"`
	Closed     bool          `json:"closed"`
	Volume     float64       `json:"volume"`
	EndDateISO string        `json:"end_date_iso"`
	Markets    []gammaMarket `json:"markets"`
}

// gammaMarket represents a nested market within an event. Outcomes and
// OutcomePrices are JSON arrays encoded as strings, e.g. "[\"Up\", \"Down\"]".
type gammaMarket struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	Outcome       string `json:"outcome"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
}

// NewClient creates a new Gamma API client. marketDuration is the fixed
// lifetime of the tracked markets; start times are derived as close − duration.
func NewClient(gammaAPIURL, tag string, limit int, marketDuration, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		gammaAPIURL:    gammaAPIURL,
		tag:            tag,
		limit:          limit,
		marketDuration: marketDuration,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchMarkets retrieves the currently active BTC 15-minute markets.
func (c *Client) FetchMarkets(ctx context.Context) ([]models.Market, error) {
	u, err := url.Parse(c.gammaAPIURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("tag", c.tag)
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("archived", "false")
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	// Response is an array directly, not wrapped.
	var events []gammaEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	now := time.Now().UTC()
	markets := make([]models.Market, 0, len(events))
	for _, ev := range events {
		m, err := c.toMarket(ev, now)
		if err != nil {
			// Skip events with unusable timing or outcome data.
			continue
		}
		markets = append(markets, m)
	}

	return markets, nil
}

// toMarket converts a Gamma event into a market snapshot.
func (c *Client) toMarket(ev gammaEvent, now time.Time) (models.Market, error) {
	if ev.EndDateISO == "" {
		return models.Market{}, fmt.Errorf("event %s has no end date", ev.ID)
	}
	closeTime, err := time.Parse(time.RFC3339, ev.EndDateISO)
	if err != nil {
		return models.Market{}, fmt.Errorf("event %s has invalid end date: %w", ev.ID, err)
	}

	upProb, downProb, err := parseOutcomeOdds(ev.Markets)
	if err != nil {
		return models.Market{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	return models.Market{
		ID:              ev.ID,
		Slug:            ev.Slug,
		Question:        ev.Title,
		StartTime:       closeTime.Add(-c.marketDuration),
		CloseTime:       closeTime,
		UpProbability:   upProb,
		DownProbability: downProb,
		Volume:          ev.Volume,
		Active:          ev.Active,
		Closed:          ev.Closed,
		FetchedAt:       now,
	}, nil
}

// parseOutcomeOdds extracts the Up/Down implied probabilities from an event's
// nested markets. Events carry either a single two-outcome market or one
// market per outcome.
func parseOutcomeOdds(markets []gammaMarket) (float64, float64, error) {
	var upProb, downProb float64
	var upSeen, downSeen bool

	for _, market := range markets {
		if market.Outcome != "" && market.OutcomePrices != "" {
			price, err := firstOutcomePrice(market.OutcomePrices)
			if err != nil {
				continue
			}
			switch {
			case strings.Contains(strings.ToLower(market.Outcome), "up"):
				upProb, upSeen = price, true
			case strings.Contains(strings.ToLower(market.Outcome), "down"):
				downProb, downSeen = price, true
			}
			continue
		}

		var outcomes []string
		if err := json.Unmarshal([]byte(market.Outcomes), &outcomes); err != nil {
			continue
		}
		var prices []string
		if err := json.Unmarshal([]byte(market.OutcomePrices), &prices); err != nil {
			continue
		}
		for i, outcome := range outcomes {
			if i >= len(prices) {
				break
			}
			price, err := strconv.ParseFloat(prices[i], 64)
			if err != nil {
				continue
			}
			switch {
			case strings.Contains(strings.ToLower(outcome), "up"):
				upProb, upSeen = price, true
			case strings.Contains(strings.ToLower(outcome), "down"):
				downProb, downSeen = price, true
			}
		}
	}

	if !upSeen || !downSeen {
		return 0, 0, fmt.Errorf("could not resolve up/down outcomes")
	}
	return upProb, downProb, nil
}

// firstOutcomePrice parses the first element of an outcomePrices JSON string.
func firstOutcomePrice(raw string) (float64, error) {
	var prices []string
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		return 0, fmt.Errorf("failed to parse outcome prices: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("empty outcome prices")
	}
	return strconv.ParseFloat(prices[0], 64)
}

// doRequest performs an HTTP GET with linear-backoff retry on transport
// errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
