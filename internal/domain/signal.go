package domain

import (
	"math"
	"time"
)

// Action is the raw decision of a strategy.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionHold Action = "hold"
)

// Side is the binary outcome a trade bets on.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Indicator maps yes to 1 and no to 0.
func (s Side) Indicator() float64 {
	if s == SideYes {
		return 1
	}
	return 0
}

// Wins reports whether a bet on s wins when the market resolves to outcome.
func (s Side) Wins(outcome bool) bool {
	return (s == SideYes) == outcome
}

// MakerQuote is the resting limit price a maker strategy wants to post.
type MakerQuote struct {
	Price float64
}

// TradeIntent is the output of a strategy, refined by the decision blender.
type TradeIntent struct {
	Action          Action
	Side            Side
	Confidence      float64
	SuggestedAmount float64
	Reasoning       string
	Features        string      // feature key used for bias learning
	SizeScale       float64     // sizing multiplier from decorators; 0 means 1
	Quote           *MakerQuote // only set by maker strategies
}

// Hold builds a non-actionable intent.
func Hold(reason string) TradeIntent {
	return TradeIntent{Action: ActionHold, Side: SideYes, Reasoning: reason}
}

// Actionable reports whether the strategy took a position.
func (t TradeIntent) Actionable() bool {
	return t.Action == ActionBuy
}

// Scale returns the effective sizing multiplier.
func (t TradeIntent) Scale() float64 {
	if t.SizeScale <= 0 {
		return 1
	}
	return t.SizeScale
}

// PriceSnapshot is a copy of the price feed state at read time.
type PriceSnapshot struct {
	Symbol    string
	Prices    []float64 // oldest first
	Volumes   []float64
	Latest    float64
	UpdatedAt time.Time
	Stale     bool
}

// Momentum is the last one-candle return, 0 with fewer than two prices.
func (p PriceSnapshot) Momentum() float64 {
	n := len(p.Prices)
	if n < 2 || p.Prices[n-2] == 0 {
		return 0
	}
	return (p.Prices[n-1] - p.Prices[n-2]) / p.Prices[n-2]
}

// Empty reports whether the feed has produced any data.
func (p PriceSnapshot) Empty() bool {
	return len(p.Prices) == 0
}

// SentimentSnapshot is the rolling sentiment state for a symbol.
type SentimentSnapshot struct {
	Score           float64 // 0 bearish, 1 bullish
	Momentum        float64
	PostCount       int
	InfluencerScore float64
	UpdatedAt       time.Time
}

// OrderflowSnapshot is the per-market context from the market-data API.
type OrderflowSnapshot struct {
	CurrentProbability float64
	Volume24h          float64
	TimeToResolution   *time.Duration
	Warnings           []string
}

// Signals bundles everything a strategy may read for one market.
type Signals struct {
	Price     PriceSnapshot
	Sentiment *SentimentSnapshot
	Orderflow *OrderflowSnapshot
}

// TimeRemaining devuelve el tiempo hasta la resolución de m. El listado de
// mercados manda; el order-flow cubre los mercados que no lo traen.
func (s Signals) TimeRemaining(m Market) (time.Duration, bool) {
	if m.TimeRemaining != nil {
		return *m.TimeRemaining, true
	}
	if s.Orderflow != nil && s.Orderflow.TimeToResolution != nil {
		return *s.Orderflow.TimeToResolution, true
	}
	return 0, false
}

// Features builds the bias-oracle input for m.
func (s Signals) Features(m Market) FeatureInput {
	in := FeatureInput{MarketPrice: m.CurrentPrice, Momentum: s.Price.Momentum()}
	if s.Orderflow != nil {
		v := s.Orderflow.Volume24h
		in.Volume24h = &v
	}
	if d, ok := s.TimeRemaining(m); ok {
		in.TimeRemaining = &d
	}
	return in
}

// FeatureInput is what the bias oracle buckets into a feature key.
type FeatureInput struct {
	MarketPrice   float64
	Momentum      float64
	Volume24h     *float64       // nil sin order-flow
	TimeRemaining *time.Duration // nil si no se conoce
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
