package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// MeanReversionDefaults son los parámetros iniciales de mean_reversion y de
// sus variantes con sizing.
func MeanReversionDefaults() domain.Params {
	return domain.Params{
		"lookback_candles":    domain.I(20),
		"bb_std_dev":          domain.F(2.0),
		"rsi_period":          domain.I(14),
		"rsi_oversold":        domain.I(30),
		"rsi_overbought":      domain.I(70),
		"reversion_threshold": domain.F(0.6),
		"position_size_pct":   domain.F(0.05),
		"min_confidence":      domain.F(0.55),
	}
}

// MeanReversion bets against overextended moves: z-score beyond the
// threshold confirmed by RSI.
type MeanReversion struct {
	p      domain.Params
	maxPos float64
}

// NewMeanReversion implementa Factory.
func NewMeanReversion(params domain.Params, maxPosition float64) Strategy {
	return &MeanReversion{p: params, maxPos: maxPosition}
}

func (s *MeanReversion) Type() string               { return TypeMeanReversion }
func (s *MeanReversion) Capabilities() Capabilities { return Capabilities{} }

// Analyze implementa Strategy.
func (s *MeanReversion) Analyze(_ domain.Market, sig domain.Signals) domain.TradeIntent {
	if t, stale := priceUnavailable(sig.Price); stale {
		return t
	}
	prices := sig.Price.Prices
	lookback := s.p.Int("lookback_candles")
	if lookback < 2 || len(prices) < lookback {
		return hold("insufficient data")
	}

	z := zScore(prices, lookback)
	r := rsi(prices, s.p.Int("rsi_period"))
	threshold := s.p.Float("reversion_threshold")
	overbought := s.p.Float("rsi_overbought")
	oversold := s.p.Float("rsi_oversold")
	amount := s.maxPos * s.p.Float("position_size_pct")

	switch {
	case z > threshold && r > overbought:
		conf := math.Min(0.95, 0.5+math.Abs(z)*0.15+(r-70)*0.005)
		return buy(domain.SideNo, conf, amount, fmt.Sprintf("mean reversion short: z=%.2f rsi=%.1f (overbought)", z, r))
	case z < -threshold && r < oversold:
		conf := math.Min(0.95, 0.5+math.Abs(z)*0.15+(30-r)*0.005)
		return buy(domain.SideYes, conf, amount, fmt.Sprintf("mean reversion long: z=%.2f rsi=%.1f (oversold)", z, r))
	}
	return hold("no reversion signal: z=%.2f rsi=%.1f", z, r)
}
