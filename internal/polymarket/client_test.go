package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(url, "btc-15m", 50, 15*time.Minute, 5*time.Second, 2, time.Millisecond)
}

func TestFetchMarkets_ParsesEvents(t *testing.T) {
	closeTime := time.Now().UTC().Add(14 * time.Minute).Truncate(time.Second)
	body := fmt.Sprintf(`[
		{
			"id": "evt-1",
			"slug": "bitcoin-up-or-down-915am",
			"title": "Bitcoin Up or Down - 9:15 AM ET?",
			"active": true,
			"closed": false,
			"volume": 1234.5,
			"end_date_iso": %q,
			"markets": [
				{
					"id": "mkt-1",
					"question": "Bitcoin Up or Down - 9:15 AM ET?",
					"outcomes": "[\"Up\", \"Down\"]",
					"outcomePrices": "[\"0.65\", \"0.35\"]"
				}
			]
		}
	]`, closeTime.Format(time.RFC3339))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("tag") != "btc-15m" {
			t.Errorf("Expected tag=btc-15m, got %q", q.Get("tag"))
		}
		if q.Get("closed") != "false" || q.Get("active") != "true" {
			t.Error("Expected active=true and closed=false filters")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	markets, err := newTestClient(srv.URL).FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets failed: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("Expected 1 market, got %d", len(markets))
	}

	m := markets[0]
	if m.ID != "evt-1" || m.Slug != "bitcoin-up-or-down-915am" {
		t.Errorf("Unexpected identity: %+v", m)
	}
	if m.UpProbability != 0.65 || m.DownProbability != 0.35 {
		t.Errorf("Expected odds 0.65/0.35, got %.2f/%.2f", m.UpProbability, m.DownProbability)
	}
	if m.Volume != 1234.5 {
		t.Errorf("Expected volume 1234.5, got %.1f", m.Volume)
	}
	if !m.CloseTime.Equal(closeTime) {
		t.Errorf("Expected close %v, got %v", closeTime, m.CloseTime)
	}
	if want := closeTime.Add(-15 * time.Minute); !m.StartTime.Equal(want) {
		t.Errorf("Start time must be close - 15m: want %v, got %v", want, m.StartTime)
	}
}

func TestFetchMarkets_SkipsUnusableEvents(t *testing.T) {
	// One event with no end date, one with unparseable outcomes: both skipped.
	body := `[
		{"id": "evt-1", "slug": "no-end", "active": true, "markets": []},
		{
			"id": "evt-2",
			"slug": "bad-outcomes",
			"active": true,
			"end_date_iso": "2026-08-26T09:30:00Z",
			"markets": [{"outcomes": "not json", "outcomePrices": "also not"}]
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	markets, err := newTestClient(srv.URL).FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets failed: %v", err)
	}
	if len(markets) != 0 {
		t.Errorf("Expected unusable events to be skipped, got %d markets", len(markets))
	}
}

func TestFetchMarkets_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchMarkets(context.Background()); err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("Expected 2 attempts, got %d", n)
	}
}

func TestParseOutcomeOdds_PerOutcomeMarkets(t *testing.T) {
	markets := []gammaMarket{
		{Outcome: "Up", OutcomePrices: `["0.58"]`},
		{Outcome: "Down", OutcomePrices: `["0.42"]`},
	}
	up, down, err := parseOutcomeOdds(markets)
	if err != nil {
		t.Fatalf("parseOutcomeOdds failed: %v", err)
	}
	if up != 0.58 || down != 0.42 {
		t.Errorf("Expected 0.58/0.42, got %.2f/%.2f", up, down)
	}
}

func TestParseOutcomeOdds_MissingOutcomeIsError(t *testing.T) {
	markets := []gammaMarket{
		{Outcomes: `["Yes", "No"]`, OutcomePrices: `["0.6", "0.4"]`},
	}
	if _, _, err := parseOutcomeOdds(markets); err == nil {
		t.Error("Expected error when up/down outcomes cannot be resolved")
	}
}
