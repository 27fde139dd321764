package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// MomentumDefaults son los parámetros iniciales de la familia momentum.
func MomentumDefaults() domain.Params {
	return domain.Params{
		"lookback_candles":      domain.I(5),
		"momentum_threshold":    domain.F(0.002),
		"position_size_pct":     domain.F(0.05),
		"min_confidence":        domain.F(0.55),
		"trend_strength_weight": domain.F(0.7),
		"volume_weight":         domain.F(0.3),
	}
}

// Momentum trades in the direction of the short-term price move.
type Momentum struct {
	p      domain.Params
	maxPos float64
}

// NewMomentum implementa Factory.
func NewMomentum(params domain.Params, maxPosition float64) Strategy {
	return &Momentum{p: params, maxPos: maxPosition}
}

func (s *Momentum) Type() string               { return TypeMomentum }
func (s *Momentum) Capabilities() Capabilities { return Capabilities{} }

// Analyze implementa Strategy.
func (s *Momentum) Analyze(_ domain.Market, sig domain.Signals) domain.TradeIntent {
	if t, stale := priceUnavailable(sig.Price); stale {
		return t
	}
	prices := sig.Price.Prices
	lookback := s.p.Int("lookback_candles")
	if lookback < 1 || len(prices) < lookback {
		return hold("insufficient price data")
	}

	recent := prices[len(prices)-lookback:]
	oldest, newest := recent[0], recent[len(recent)-1]
	if oldest == 0 {
		return hold("zero price")
	}
	change := (newest - oldest) / oldest

	consecutive := 0
	for i := 1; i < len(recent); i++ {
		if (change > 0 && recent[i] > recent[i-1]) || (change < 0 && recent[i] < recent[i-1]) {
			consecutive++
		}
	}
	var trend float64
	if len(recent) > 1 {
		trend = float64(consecutive) / float64(len(recent)-1)
	}

	vol := volumeSignal(sig.Price.Volumes, lookback)
	confidence := trend*s.p.Float("trend_strength_weight") + vol*s.p.Float("volume_weight")

	threshold := s.p.Float("momentum_threshold")
	if math.Abs(change) < threshold {
		t := hold("momentum %.4f below threshold %g", change, threshold)
		t.Confidence = domain.Clamp(confidence, 0, 1)
		return t
	}

	side := domain.SideNo
	if change > 0 {
		side = domain.SideYes
	}
	return buy(side, math.Min(confidence, 0.95), s.maxPos*s.p.Float("position_size_pct"),
		fmt.Sprintf("momentum %.4f (%d candles), trend=%.2f, vol=%.2f", change, lookback, trend, vol))
}

// volumeSignal compares the last lookback volumes against the window before
// it. 0.5 when there is not enough volume history.
func volumeSignal(volumes []float64, lookback int) float64 {
	if len(volumes) < lookback {
		return 0.5
	}
	recent := sum(volumes[len(volumes)-lookback:])
	prev := recent
	if len(volumes) >= lookback*2 {
		prev = sum(volumes[len(volumes)-lookback*2 : len(volumes)-lookback])
	}
	return math.Min(1, recent/math.Max(prev, 1))*0.5 + 0.25
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
