package strategy_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxPos = 100.0

func series(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func build(t *testing.T, typ string) strategy.Strategy {
	t.Helper()
	s, err := strategy.DefaultRegistry().Build(domain.Bot{Name: "t", StrategyType: typ}, maxPos)
	require.NoError(t, err)
	return s
}

func withPrices(prices []float64) domain.Signals {
	return domain.Signals{Price: domain.PriceSnapshot{Prices: prices}}
}

func bullishSentiment() *domain.SentimentSnapshot {
	return &domain.SentimentSnapshot{Score: 0.8, InfluencerScore: 0.8, Momentum: 0.1, PostCount: 10}
}

func TestMomentum(t *testing.T) {
	s := build(t, strategy.TypeMomentum)

	up := s.Analyze(domain.Market{}, withPrices(series(100, 1, 10)))
	assert.Equal(t, domain.ActionBuy, up.Action)
	assert.Equal(t, domain.SideYes, up.Side)
	assert.InDelta(t, 0.85, up.Confidence, 1e-9)
	assert.InDelta(t, 5.0, up.SuggestedAmount, 1e-9)

	down := s.Analyze(domain.Market{}, withPrices(series(110, -1, 10)))
	assert.Equal(t, domain.SideNo, down.Side)

	short := s.Analyze(domain.Market{}, withPrices([]float64{1, 2}))
	assert.Equal(t, domain.ActionHold, short.Action)

	flat := s.Analyze(domain.Market{}, withPrices(series(100, 0, 10)))
	assert.Equal(t, domain.ActionHold, flat.Action)
}

func TestMeanReversion(t *testing.T) {
	s := build(t, strategy.TypeMeanReversion)

	over := s.Analyze(domain.Market{}, withPrices(series(100, 1, 20)))
	require.Equal(t, domain.ActionBuy, over.Action)
	assert.Equal(t, domain.SideNo, over.Side)
	assert.LessOrEqual(t, over.Confidence, 0.95)

	under := s.Analyze(domain.Market{}, withPrices(series(119, -1, 20)))
	require.Equal(t, domain.ActionBuy, under.Action)
	assert.Equal(t, domain.SideYes, under.Side)

	flat := s.Analyze(domain.Market{}, withPrices(series(100, 0, 20)))
	assert.Equal(t, domain.ActionHold, flat.Action)

	short := s.Analyze(domain.Market{}, withPrices(series(100, 1, 5)))
	assert.Equal(t, domain.ActionHold, short.Action)
}

func TestSentiment(t *testing.T) {
	s := build(t, strategy.TypeSentiment)

	none := s.Analyze(domain.Market{}, domain.Signals{})
	assert.Equal(t, domain.ActionHold, none.Action)

	bull := s.Analyze(domain.Market{}, domain.Signals{Sentiment: bullishSentiment()})
	assert.Equal(t, domain.ActionBuy, bull.Action)
	assert.Equal(t, domain.SideYes, bull.Side)
	assert.InDelta(t, 0.95, bull.Confidence, 1e-9)

	bear := s.Analyze(domain.Market{}, domain.Signals{Sentiment: &domain.SentimentSnapshot{
		Score: 0.1, InfluencerScore: 0.2, Momentum: -0.1, PostCount: 10,
	}})
	assert.Equal(t, domain.SideNo, bear.Side)

	noisy := s.Analyze(domain.Market{}, domain.Signals{Sentiment: &domain.SentimentSnapshot{Score: 0.9, PostCount: 2}})
	assert.Equal(t, domain.ActionHold, noisy.Action)
}

func TestHybrid_AgreementBonus(t *testing.T) {
	s := build(t, strategy.TypeHybrid)

	sig := withPrices(series(100, 1, 10))
	sig.Sentiment = bullishSentiment()

	got := s.Analyze(domain.Market{}, sig)
	require.Equal(t, domain.ActionBuy, got.Action)
	assert.Equal(t, domain.SideYes, got.Side)
	// 0.85*0.35 + 0.95*0.30 + 0.15 bonus
	assert.InDelta(t, 0.7325, got.Confidence, 1e-9)
	assert.Contains(t, got.Reasoning, "2Y/0N")
}

func TestHybrid_AllHold(t *testing.T) {
	s := build(t, strategy.TypeHybrid)
	got := s.Analyze(domain.Market{}, domain.Signals{})
	assert.Equal(t, domain.ActionHold, got.Action)
}

func TestFeeZoneMaker(t *testing.T) {
	s := build(t, strategy.TypeFeeZoneMaker)
	assert.True(t, s.Capabilities().RestingOrders)

	in := s.Analyze(domain.Market{CurrentPrice: 0.65}, withPrices(series(100, 0, 5)))
	require.Equal(t, domain.ActionBuy, in.Action)
	assert.Equal(t, domain.SideYes, in.Side)
	require.NotNil(t, in.Quote)
	assert.InDelta(t, 0.63, in.Quote.Price, 1e-9)

	out := s.Analyze(domain.Market{CurrentPrice: 0.50}, withPrices(series(100, 0, 5)))
	assert.Equal(t, domain.ActionHold, out.Action)

	dumping := s.Analyze(domain.Market{CurrentPrice: 0.65}, withPrices(series(100, -1, 5)))
	assert.Equal(t, domain.ActionHold, dumping.Action)
}

func TestLateWindowMaker(t *testing.T) {
	s := build(t, strategy.TypeLateWindowMaker)
	prices := withPrices([]float64{100, 100.1, 100.2})

	late := 30 * time.Second
	got := s.Analyze(domain.Market{CurrentPrice: 0.70, TimeRemaining: &late}, prices)
	require.Equal(t, domain.ActionBuy, got.Action)
	require.NotNil(t, got.Quote)
	assert.InDelta(t, 0.76, got.Quote.Price, 1e-9)
	assert.LessOrEqual(t, got.Confidence, 0.92)

	early := 120 * time.Second
	assert.Equal(t, domain.ActionHold, s.Analyze(domain.Market{CurrentPrice: 0.70, TimeRemaining: &early}, prices).Action)
	assert.Equal(t, domain.ActionHold, s.Analyze(domain.Market{CurrentPrice: 0.70}, prices).Action)

	// Without listing time the order-flow time to resolution is used.
	withFlow := prices
	withFlow.Orderflow = &domain.OrderflowSnapshot{TimeToResolution: &late}
	assert.Equal(t, domain.ActionBuy, s.Analyze(domain.Market{CurrentPrice: 0.70}, withFlow).Action)
}

func TestStaleFeed_PriceFamiliesHold(t *testing.T) {
	late := 30 * time.Second
	frozen := time.Now().Add(-2 * time.Hour)
	cases := []struct {
		typ    string
		market domain.Market
		prices []float64
	}{
		{strategy.TypeMomentum, domain.Market{}, series(100, 1, 10)},
		{strategy.TypeMeanReversion, domain.Market{}, series(100, 1, 20)},
		{strategy.TypeMeanRevSL, domain.Market{}, series(119, -1, 20)},
		{strategy.TypeMeanRevTP, domain.Market{}, series(119, -1, 20)},
		{strategy.TypeHybrid, domain.Market{}, series(100, 1, 10)},
		{strategy.TypeFeeZoneMaker, domain.Market{CurrentPrice: 0.65}, series(100, 0, 5)},
		{strategy.TypeLateWindowMaker, domain.Market{CurrentPrice: 0.70, TimeRemaining: &late}, []float64{100, 100.1, 100.2}},
	}
	for _, c := range cases {
		t.Run(c.typ, func(t *testing.T) {
			s := build(t, c.typ)
			sig := withPrices(c.prices)
			sig.Sentiment = bullishSentiment()
			require.Equal(t, domain.ActionBuy, s.Analyze(c.market, sig).Action, "fresh feed must trade")

			sig.Price.Stale = true
			sig.Price.UpdatedAt = frozen
			got := s.Analyze(c.market, sig)
			assert.Equal(t, domain.ActionHold, got.Action)
			assert.Contains(t, got.Reasoning, "stale")

			sig.Price = domain.PriceSnapshot{Stale: true}
			assert.Equal(t, domain.ActionHold, s.Analyze(c.market, sig).Action)
		})
	}
}

func TestStaleFeed_SentimentIgnoresPrice(t *testing.T) {
	s := build(t, strategy.TypeSentiment)
	got := s.Analyze(domain.Market{}, domain.Signals{
		Price:     domain.PriceSnapshot{Stale: true},
		Sentiment: bullishSentiment(),
	})
	assert.Equal(t, domain.ActionBuy, got.Action)
}

func TestStopLossWrapper_ScalesSizeOnly(t *testing.T) {
	base := build(t, strategy.TypeMeanReversion)
	sl := build(t, strategy.TypeMeanRevSL)
	sig := withPrices(series(119, -1, 20))

	b := base.Analyze(domain.Market{}, sig)
	w := sl.Analyze(domain.Market{}, sig)

	assert.Equal(t, b.Side, w.Side)
	assert.Equal(t, b.Confidence, w.Confidence)
	assert.Equal(t, 1.5, w.SizeScale)
	assert.InDelta(t, b.SuggestedAmount*1.5, w.SuggestedAmount, 1e-9)
	assert.Equal(t, strategy.TypeMeanRevSL, sl.Type())
}

func TestTakeProfitWrapper_AnnotatesOnly(t *testing.T) {
	tp := build(t, strategy.TypeMeanRevTP)
	got := tp.Analyze(domain.Market{}, withPrices(series(119, -1, 20)))
	assert.Equal(t, 1.0, got.Scale())
	assert.InDelta(t, 5.0, got.SuggestedAmount, 1e-9)
	assert.Contains(t, got.Reasoning, "[tp:")
}

func TestRegistry_Build(t *testing.T) {
	r := strategy.DefaultRegistry()
	assert.Len(t, r.Types(), 8)

	_, err := r.Build(domain.Bot{Name: "x", StrategyType: "nope"}, maxPos)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	// Params that are missing fall back to the family defaults.
	s, err := r.Build(domain.Bot{Name: "m", StrategyType: strategy.TypeMomentum, Params: domain.Params{
		"momentum_threshold": domain.F(0.5),
	}}, maxPos)
	require.NoError(t, err)
	got := s.Analyze(domain.Market{}, withPrices(series(100, 1, 10)))
	assert.Equal(t, domain.ActionHold, got.Action)
}

func TestRegistry_Compatible(t *testing.T) {
	r := strategy.DefaultRegistry()
	parent := strategy.MomentumDefaults()
	parent["lookback_candles"] = domain.I(9)
	parent["position_size_pct"] = domain.F(0.07)

	got, err := r.Compatible(strategy.TypeMeanReversion, parent)
	require.NoError(t, err)

	assert.Equal(t, 9, got.Int("lookback_candles"))
	assert.Equal(t, 0.07, got.Float("position_size_pct"))
	assert.Equal(t, 14, got.Int("rsi_period"))
	_, hasMomentumKey := got["momentum_threshold"]
	assert.False(t, hasMomentumKey)
}

func TestTakerFee(t *testing.T) {
	assert.InDelta(t, 0.015625, strategy.TakerFee(0.5), 1e-12)
	assert.Equal(t, 0.0, strategy.TakerFee(1))
}
