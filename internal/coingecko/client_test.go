package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, 2, time.Millisecond)
}

func TestFetchPrice_ParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("ids") != "bitcoin" || q.Get("vs_currencies") != "usd" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"bitcoin": {"usd": 60123.45, "usd_24h_change": -1.87}}`)
	}))
	defer srv.Close()

	p, err := newTestClient(srv.URL).FetchPrice(context.Background())
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if p.Price != 60123.45 {
		t.Errorf("Expected price 60123.45, got %.2f", p.Price)
	}
	if p.Change24h != -1.87 {
		t.Errorf("Expected change -1.87, got %.2f", p.Change24h)
	}
	if p.FetchedAt.IsZero() {
		t.Error("FetchedAt must be set")
	}
}

func TestFetchPrice_MissingFieldsAreUnavailable(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"missing change", `{"bitcoin": {"usd": 60000}}`},
		{"missing price", `{"bitcoin": {"usd_24h_change": 1.5}}`},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchPrice(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("Expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchPrice_ZeroReadingIsNotUnavailable(t *testing.T) {
	// A genuine zero change must be distinguishable from missing data.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bitcoin": {"usd": 60000, "usd_24h_change": 0}}`)
	}))
	defer srv.Close()

	p, err := newTestClient(srv.URL).FetchPrice(context.Background())
	if err != nil {
		t.Fatalf("Zero change must parse cleanly, got %v", err)
	}
	if p.Change24h != 0 {
		t.Errorf("Expected zero change, got %.2f", p.Change24h)
	}
}

func TestFetchPrice_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // immediately closed: connection refused

	_, err := newTestClient(srv.URL).FetchPrice(context.Background())
	if err == nil {
		t.Error("Expected error for unreachable feed")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("Transport failure must not be classified as data unavailability")
	}
}
