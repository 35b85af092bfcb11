package models

// Direction is the predicted move over a market's remaining lifetime.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Factor is one labeled signal that contributed to a prediction. Weight is the
// signed score the signal added; Detail is human-readable rationale text and is
// never consulted by decision logic.
type Factor struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
	Detail string  `json:"detail"`
}

// Prediction is a directional call with bounded confidence. Risky marks
// low-liquidity markets whose confidence has been capped.
type Prediction struct {
	Direction  Direction `json:"direction"`
	Confidence int       `json:"confidence"`
	Factors    []Factor  `json:"factors"`
	Risky      bool      `json:"risky"`
}
