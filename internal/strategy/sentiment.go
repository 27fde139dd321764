package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// SentimentDefaults son los parámetros iniciales de la familia sentiment.
func SentimentDefaults() domain.Params {
	return domain.Params{
		"sentiment_window_min":      domain.I(5),
		"bullish_threshold":         domain.F(0.6),
		"bearish_threshold":         domain.F(0.4),
		"influencer_weight":         domain.F(2.0),
		"noise_filter_min_posts":    domain.I(5),
		"position_size_pct":         domain.F(0.04),
		"min_confidence":            domain.F(0.55),
		"sentiment_momentum_weight": domain.F(0.6),
		"raw_sentiment_weight":      domain.F(0.4),
	}
}

// Sentiment trades on social sentiment, weighting influencers higher.
type Sentiment struct {
	p      domain.Params
	maxPos float64
}

// NewSentiment implementa Factory.
func NewSentiment(params domain.Params, maxPosition float64) Strategy {
	return &Sentiment{p: params, maxPos: maxPosition}
}

func (s *Sentiment) Type() string               { return TypeSentiment }
func (s *Sentiment) Capabilities() Capabilities { return Capabilities{} }

// Analyze implementa Strategy.
func (s *Sentiment) Analyze(_ domain.Market, sig domain.Signals) domain.TradeIntent {
	snap := sig.Sentiment
	if snap == nil {
		return hold("no sentiment data")
	}
	if minPosts := s.p.Int("noise_filter_min_posts"); snap.PostCount < minPosts {
		return hold("too few posts (%d) for reliable signal", snap.PostCount)
	}

	iw := s.p.Float("influencer_weight")
	weighted := domain.Clamp((snap.Score+(snap.InfluencerScore-0.5)*iw)/(1+iw*0.5), 0, 1)
	momentum := domain.Clamp(0.5+snap.Momentum*5, 0, 1)
	combined := weighted*s.p.Float("raw_sentiment_weight") + momentum*s.p.Float("sentiment_momentum_weight")

	bull := s.p.Float("bullish_threshold")
	bear := s.p.Float("bearish_threshold")
	amount := s.maxPos * s.p.Float("position_size_pct")
	why := fmt.Sprintf("score=%.2f influencer=%.2f momentum=%.3f posts=%d",
		snap.Score, snap.InfluencerScore, snap.Momentum, snap.PostCount)

	switch {
	case combined > bull:
		return buy(domain.SideYes, math.Min(0.95, 0.5+(combined-bull)*2), amount, "bullish sentiment: "+why)
	case combined < bear:
		return buy(domain.SideNo, math.Min(0.95, 0.5+(bear-combined)*2), amount, "bearish sentiment: "+why)
	}
	return hold("neutral sentiment: combined=%.2f", combined)
}
