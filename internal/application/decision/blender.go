// Package decision merges a strategy's raw intent with the learned bias of
// its bot into the final trade signal.
package decision

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/ports"
)

const (
	prior = 0.5

	strategyWeight = 0.6
	learnedWeight  = 0.4

	minConfidence = 0.1
	maxConfidence = 0.95

	minBetPct = 0.02
	maxBetPct = 0.10
)

// Blender always returns an actionable buy. Confidence only controls the bet
// size; the risk gate and the evolution cycle prune bad bots.
type Blender struct {
	oracle      ports.BiasOracle
	maxPosition float64
}

// NewBlender crea un Blender.
func NewBlender(oracle ports.BiasOracle, maxPosition float64) *Blender {
	return &Blender{oracle: oracle, maxPosition: maxPosition}
}

// Blend combines raw with the learned bias of bot for the current market.
func (b *Blender) Blend(bot string, market domain.Market, signals domain.Signals, raw domain.TradeIntent) domain.TradeIntent {
	key := b.oracle.ExtractFeatures(signals.Features(market))
	learned := domain.Clamp(b.oracle.LearnedBias(bot, key, prior), 0, 1)

	var combined float64
	var reasoning string
	if raw.Actionable() {
		conf := domain.Clamp(raw.Confidence, 0, 1)
		combined = raw.Side.Indicator()*conf*strategyWeight +
			learned*learnedWeight +
			(1-conf)*0.5*strategyWeight
		reasoning = fmt.Sprintf("%s | learned_bias=%.2f", raw.Reasoning, learned)
	} else {
		combined = learned
		reasoning = fmt.Sprintf("learning-driven: yes_bias=%.2f features=%s (%s)", learned, key, raw.Reasoning)
	}

	side := domain.SideNo
	if combined > 0.5 {
		side = domain.SideYes
	}
	confidence := domain.Clamp(math.Abs(combined-0.5)*2, minConfidence, maxConfidence)

	return domain.TradeIntent{
		Action:          domain.ActionBuy,
		Side:            side,
		Confidence:      confidence,
		SuggestedAmount: b.Amount(confidence, raw.Scale()),
		Reasoning:       reasoning,
		Features:        key,
		SizeScale:       raw.Scale(),
		Quote:           raw.Quote,
	}
}

// Amount interpolates between 2% and 10% of max position by confidence,
// applies the sizing multiplier and caps at max position.
func (b *Blender) Amount(confidence, scale float64) float64 {
	lo := b.maxPosition * minBetPct
	hi := b.maxPosition * maxBetPct
	amount := (lo + (hi-lo)*domain.Clamp(confidence, 0, 1)) * scale
	return math.Min(amount, b.maxPosition)
}
