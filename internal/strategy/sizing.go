package strategy

import (
	"math"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// stopLossScale is the size multiplier of the stop-loss variant: the loss per
// trade is capped at 25%, so the bet can be 1.5x larger.
const stopLossScale = 1.5

// Sized wraps a strategy and adjusts only the sizing of its output. Side,
// confidence and action of the inner strategy pass through untouched.
type Sized struct {
	inner  Strategy
	typ    string
	scale  float64
	note   string
	maxPos float64
}

// NewMeanRevStopLoss implementa Factory: mean reversion with 1.5x sizing.
func NewMeanRevStopLoss(params domain.Params, maxPosition float64) Strategy {
	return &Sized{
		inner:  NewMeanReversion(params, maxPosition),
		typ:    TypeMeanRevSL,
		scale:  stopLossScale,
		note:   " [sl: 1.5x size, loss capped 25%]",
		maxPos: maxPosition,
	}
}

// NewMeanRevTakeProfit implementa Factory: mean reversion that only annotates
// the take-profit target.
func NewMeanRevTakeProfit(params domain.Params, maxPosition float64) Strategy {
	return &Sized{
		inner:  NewMeanReversion(params, maxPosition),
		typ:    TypeMeanRevTP,
		scale:  1,
		note:   " [tp: monitoring for 2x exit]",
		maxPos: maxPosition,
	}
}

func (s *Sized) Type() string               { return s.typ }
func (s *Sized) Capabilities() Capabilities { return s.inner.Capabilities() }

// Analyze implementa Strategy.
func (s *Sized) Analyze(m domain.Market, sig domain.Signals) domain.TradeIntent {
	t := s.inner.Analyze(m, sig)
	t.SizeScale = t.Scale() * s.scale
	if t.Actionable() {
		t.SuggestedAmount = math.Min(t.SuggestedAmount*s.scale, s.maxPos)
	}
	t.Reasoning += s.note
	return t
}
