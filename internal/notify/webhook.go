package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notifier delivers one pre-formatted text payload per call.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WebhookClient posts alert payloads to a webhook endpoint as {"message": text}.
type WebhookClient struct {
	endpoint       string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewWebhookClient creates a webhook sink for the given endpoint.
func NewWebhookClient(endpoint string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *WebhookClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &WebhookClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Notify posts the payload with linear-backoff retry. Any non-2xx response
// counts as a failed attempt.
func (c *WebhookClient) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// MultiNotifier fans a payload out to several sinks. Delivery counts as
// successful only when every sink accepts it, so a partial failure keeps the
// market eligible for retry.
type MultiNotifier struct {
	sinks []Notifier
}

func NewMultiNotifier(sinks ...Notifier) *MultiNotifier {
	return &MultiNotifier{sinks: sinks}
}

func (m *MultiNotifier) Notify(ctx context.Context, text string) error {
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, text); err != nil {
			return err
		}
	}
	return nil
}
