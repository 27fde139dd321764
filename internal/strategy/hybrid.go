package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// HybridDefaults son los parámetros iniciales del ensemble.
func HybridDefaults() domain.Params {
	return domain.Params{
		"momentum_weight":      domain.F(0.35),
		"mean_rev_weight":      domain.F(0.35),
		"sentiment_weight":     domain.F(0.30),
		"confidence_threshold": domain.F(0.55),
		"agreement_bonus":      domain.F(0.15),
		"position_size_pct":    domain.F(0.06),
		"min_confidence":       domain.F(0.5),
	}
}

// Hybrid is a weighted vote of momentum, mean reversion and sentiment, with
// a bonus when at least two of them agree on a side.
type Hybrid struct {
	p      domain.Params
	maxPos float64
	subs   []weighted
}

type weighted struct {
	s      Strategy
	weight string
}

// NewHybrid implementa Factory. The sub-strategies always run with their
// family defaults; only the ensemble weights evolve.
func NewHybrid(params domain.Params, maxPosition float64) Strategy {
	return &Hybrid{
		p:      params,
		maxPos: maxPosition,
		subs: []weighted{
			{NewMomentum(MomentumDefaults(), maxPosition), "momentum_weight"},
			{NewMeanReversion(MeanReversionDefaults(), maxPosition), "mean_rev_weight"},
			{NewSentiment(SentimentDefaults(), maxPosition), "sentiment_weight"},
		},
	}
}

func (s *Hybrid) Type() string               { return TypeHybrid }
func (s *Hybrid) Capabilities() Capabilities { return Capabilities{} }

// Analyze implementa Strategy.
func (s *Hybrid) Analyze(m domain.Market, sig domain.Signals) domain.TradeIntent {
	if t, stale := priceUnavailable(sig.Price); stale {
		return t
	}
	var score float64
	var yes, no int
	var reasons []string

	for _, sub := range s.subs {
		t := sub.s.Analyze(m, sig)
		if !t.Actionable() {
			continue
		}
		dir := -1.0
		if t.Side == domain.SideYes {
			dir = 1
			yes++
		} else {
			no++
		}
		score += dir * t.Confidence * s.p.Float(sub.weight)
		reasons = append(reasons, truncate(t.Reasoning, 60))
	}

	if yes+no == 0 {
		return hold("all sub-strategies say hold")
	}

	agreement := max(yes, no) >= 2
	confidence := math.Abs(score)
	if agreement {
		confidence += s.p.Float("agreement_bonus")
	}
	confidence = math.Min(0.95, confidence)

	if threshold := s.p.Float("confidence_threshold"); confidence < threshold {
		t := hold("ensemble confidence %.2f below threshold %g", confidence, threshold)
		t.Confidence = confidence
		return t
	}

	side := domain.SideNo
	if score > 0 {
		side = domain.SideYes
	}
	return buy(side, confidence, s.maxPos*s.p.Float("position_size_pct"),
		fmt.Sprintf("ensemble (%dY/%dN, agree=%t): %s", yes, no, agreement, strings.Join(reasons, " | ")))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
