package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// Maker strategies quote passively. In paper mode they execute at market like
// every other bot; their params decide when and whether to enter.

const priceTick = 0.01

// TakerFee is the per-share taker fee curve: 0.25 × (p(1−p))².
func TakerFee(price float64) float64 {
	return 0.25 * math.Pow(price*(1-price), 2)
}

// FeeZoneDefaults son los parámetros iniciales de fee_zone_maker.
func FeeZoneDefaults() domain.Params {
	return domain.Params{
		"min_price_zone":    domain.F(0.60),
		"max_price_zone":    domain.F(0.82),
		"min_fee_bps":       domain.I(80),
		"spread_ticks":      domain.I(2),
		"momentum_weight":   domain.F(0.30),
		"position_size_pct": domain.F(0.06),
		"lookback_candles":  domain.I(5),
		"min_confidence":    domain.F(0.25),
	}
}

// FeeZoneMaker bids YES only inside the price band where the taker fee is
// large enough to pay for providing liquidity.
type FeeZoneMaker struct {
	p      domain.Params
	maxPos float64
}

// NewFeeZoneMaker implementa Factory.
func NewFeeZoneMaker(params domain.Params, maxPosition float64) Strategy {
	return &FeeZoneMaker{p: params, maxPos: maxPosition}
}

func (s *FeeZoneMaker) Type() string               { return TypeFeeZoneMaker }
func (s *FeeZoneMaker) Capabilities() Capabilities { return Capabilities{RestingOrders: true} }

// Analyze implementa Strategy.
func (s *FeeZoneMaker) Analyze(m domain.Market, sig domain.Signals) domain.TradeIntent {
	if t, stale := priceUnavailable(sig.Price); stale {
		return t
	}
	price := m.CurrentPrice
	halfSpread := float64(s.p.Int("spread_ticks")) * priceTick
	bid := round2(math.Max(0.01, price-halfSpread))

	lo, hi := s.p.Float("min_price_zone"), s.p.Float("max_price_zone")
	if price < lo || price > hi || hi <= lo {
		return hold("fzm: price %.2f outside fee zone [%g,%g]", price, lo, hi)
	}

	feeBps := TakerFee(price) * 10000
	if minFee := s.p.Float("min_fee_bps"); feeBps < minFee {
		return hold("fzm: fee %.0fbps < %gbps at price=%.2f", feeBps, minFee, price)
	}

	momentum, _ := pctChange(sig.Price.Prices, s.p.Int("lookback_candles"))
	if momentum < -0.0015 {
		return hold("fzm: momentum contradicts yes zone (mom=%+.5f)", momentum)
	}

	priceSignal := (price - lo) / (hi - lo)
	mw := s.p.Float("momentum_weight")
	boost := domain.Clamp(momentum*50, 0, 0.30)
	confidence := math.Min(0.88, 0.30+priceSignal*(1-mw)*0.50+boost*mw)
	if minConf := s.p.Float("min_confidence"); confidence < minConf {
		return hold("fzm: conf %.3f < %g", confidence, minConf)
	}

	t := buy(domain.SideYes, confidence, s.maxPos*s.p.Float("position_size_pct"),
		fmt.Sprintf("fzm: price=%.2f fee=%.0fbps mom=%+.5f psig=%.2f bid=%.2f", price, feeBps, momentum, priceSignal, bid))
	t.Quote = &domain.MakerQuote{Price: bid}
	return t
}

// LateWindowDefaults son los parámetros iniciales de late_window_maker.
func LateWindowDefaults() domain.Params {
	return domain.Params{
		"entry_window_sec":  domain.I(90),
		"min_momentum":      domain.F(0.0008),
		"min_price_yes":     domain.F(0.58),
		"max_price_yes":     domain.F(0.92),
		"maker_offset_pct":  domain.F(0.06),
		"position_size_pct": domain.F(0.10),
		"lookback_candles":  domain.I(3),
	}
}

// LateWindowMaker enters YES only in the last seconds of a window, when
// momentum and price already agree.
type LateWindowMaker struct {
	p      domain.Params
	maxPos float64
}

// NewLateWindowMaker implementa Factory.
func NewLateWindowMaker(params domain.Params, maxPosition float64) Strategy {
	return &LateWindowMaker{p: params, maxPos: maxPosition}
}

func (s *LateWindowMaker) Type() string               { return TypeLateWindowMaker }
func (s *LateWindowMaker) Capabilities() Capabilities { return Capabilities{RestingOrders: true} }

// Analyze implementa Strategy.
func (s *LateWindowMaker) Analyze(m domain.Market, sig domain.Signals) domain.TradeIntent {
	if t, stale := priceUnavailable(sig.Price); stale {
		return t
	}
	window := s.p.Float("entry_window_sec")
	left, ok := sig.TimeRemaining(m)
	remaining := left.Seconds()
	if !ok || remaining > window || window <= 0 {
		return hold("lwm: waiting (window=%gs)", window)
	}

	momentum, _ := pctChange(sig.Price.Prices, s.p.Int("lookback_candles"))
	minMom := s.p.Float("min_momentum")
	if math.Abs(momentum) < minMom {
		return hold("lwm: weak momentum (%+.5f < %g)", momentum, minMom)
	}
	// Only the yes side is traded by this family.
	if momentum < 0 {
		return hold("lwm: no side disabled (mom=%+.5f)", momentum)
	}

	price := m.CurrentPrice
	lo, hi := s.p.Float("min_price_yes"), s.p.Float("max_price_yes")
	if price < lo {
		return hold("lwm: price %.2f < %g (no yes confirmation)", price, lo)
	}
	if price > hi {
		return hold("lwm: price %.2f > %g (margin too thin)", price, hi)
	}

	limit := round2(math.Min(hi, price+s.p.Float("maker_offset_pct")))
	timeWeight := 1 - remaining/window
	strength := 1.0
	if minMom > 0 {
		strength = math.Min(1, math.Abs(momentum)/(minMom*5))
	}
	confidence := math.Min(0.92, 0.45+timeWeight*0.30+strength*0.20)

	t := buy(domain.SideYes, confidence, s.maxPos*s.p.Float("position_size_pct"),
		fmt.Sprintf("lwm: time=%.0fs mom=%+.5f price=%.2f limit=%.2f tw=%.2f", remaining, momentum, price, limit, timeWeight))
	t.Quote = &domain.MakerQuote{Price: limit}
	return t
}
