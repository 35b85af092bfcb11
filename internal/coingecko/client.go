// Package coingecko provides the BTC spot price feed.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rewired-gh/btcsentry/internal/models"
)

// ErrUnavailable signals that the price feed responded but carried no usable
// numbers. Distinct from a transport failure and from a genuine zero reading.
var ErrUnavailable = errors.New("price data unavailable")

// Client fetches the BTC spot price and 24h change from the CoinGecko API.
type Client struct {
	apiURL         string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// simplePriceResponse mirrors the /simple/price payload. Pointer fields
// distinguish an absent value from a legitimate zero.
type simplePriceResponse struct {
	Bitcoin struct {
		USD          *float64 `json:"usd"`
		USD24hChange *float64 `json:"usd_24h_change"`
	} `json:"bitcoin"`
}

// NewClient creates a new CoinGecko client.
func NewClient(apiURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchPrice retrieves the current BTC spot price and its 24h percent change.
// Returns ErrUnavailable when the feed omits either number.
func (c *Client) FetchPrice(ctx context.Context) (models.PricePoint, error) {
	u, err := url.Parse(c.apiURL + "/simple/price")
	if err != nil {
		return models.PricePoint{}, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("ids", "bitcoin")
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return models.PricePoint{}, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	var payload simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.PricePoint{}, fmt.Errorf("failed to decode price: %w", err)
	}

	if payload.Bitcoin.USD == nil || payload.Bitcoin.USD24hChange == nil {
		return models.PricePoint{}, ErrUnavailable
	}

	return models.PricePoint{
		Price:     *payload.Bitcoin.USD,
		Change24h: *payload.Bitcoin.USD24hChange,
		FetchedAt: time.Now().UTC(),
	}, nil
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
