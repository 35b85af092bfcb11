package models

import (
	"testing"
	"time"
)

func validMarket() Market {
	now := time.Now().UTC()
	return Market{
		ID:              "evt-1",
		Slug:            "btc-15m-test",
		Question:        "Bitcoin Up or Down?",
		StartTime:       now.Add(-1 * time.Minute),
		CloseTime:       now.Add(14 * time.Minute),
		UpProbability:   0.65,
		DownProbability: 0.35,
		Volume:          1500,
		Active:          true,
		FetchedAt:       now,
	}
}

func TestMarketValidate(t *testing.T) {
	m := validMarket()
	if err := m.Validate(); err != nil {
		t.Errorf("Valid market failed validation: %v", err)
	}
}

func TestMarketValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Market)
	}{
		{"empty id", func(m *Market) { m.ID = "" }},
		{"zero start", func(m *Market) { m.StartTime = time.Time{} }},
		{"start after close", func(m *Market) { m.StartTime = m.CloseTime.Add(time.Minute) }},
		{"up probability above 1", func(m *Market) { m.UpProbability = 1.2 }},
		{"negative down probability", func(m *Market) { m.DownProbability = -0.1 }},
		{"probabilities do not sum to 1", func(m *Market) {
			m.UpProbability = 0.9
			m.DownProbability = 0.5
		}},
		{"negative volume", func(m *Market) { m.Volume = -5 }},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			m := validMarket()
			tt.mutate(&m)
			if err := m.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
