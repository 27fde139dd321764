package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polyarena/internal/application/discovery"
	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolution struct {
	outcome domain.Outcome
	pnl     float64
}

type fakeLedger struct {
	pending  []domain.Trade
	resolved map[string]resolution
}

func (f *fakeLedger) LogTrade(context.Context, domain.Trade) error { return nil }
func (f *fakeLedger) PendingTrades(context.Context, domain.Mode) ([]domain.Trade, error) {
	return f.pending, nil
}
func (f *fakeLedger) ResolveTrade(_ context.Context, id string, o domain.Outcome, pnl float64, _ time.Time) (bool, error) {
	if f.resolved == nil {
		f.resolved = map[string]resolution{}
	}
	if _, done := f.resolved[id]; done {
		return false, nil
	}
	f.resolved[id] = resolution{o, pnl}
	return true, nil
}
func (f *fakeLedger) BotDailyLoss(context.Context, string, domain.Mode, time.Time) (float64, error) {
	return 0, nil
}
func (f *fakeLedger) TotalDailyLoss(context.Context, domain.Mode, time.Time) (float64, error) {
	return 0, nil
}
func (f *fakeLedger) BotPerformance(context.Context, string, domain.Mode, time.Time) (domain.Performance, error) {
	return domain.Performance{}, nil
}

type sample struct {
	bot, key string
	side     domain.Side
	won      bool
}

type recordingOracle struct {
	samples []sample
}

func (o *recordingOracle) ExtractFeatures(in domain.FeatureInput) string {
	if in.MarketPrice >= 0.5 {
		return "hi"
	}
	return "lo"
}
func (o *recordingOracle) LearnedBias(string, string, float64) float64 { return 0.5 }
func (o *recordingOracle) RecordOutcome(bot, key string, side domain.Side, won bool) error {
	o.samples = append(o.samples, sample{bot, key, side, won})
	return nil
}

func outcome(b bool) *bool { return &b }

func TestResolvePending_SettlesAndRecords(t *testing.T) {
	ledger := &fakeLedger{pending: []domain.Trade{
		{ID: "t1", BotName: "a", MarketID: "m1", Side: domain.SideYes, Amount: 5, Features: "k1"},
		{ID: "t2", BotName: "b", MarketID: "m1", Side: domain.SideNo, Amount: 3},
		{ID: "t3", BotName: "a", MarketID: "m2", Side: domain.SideYes, Amount: 4},
	}}
	provider := &fakeMarkets{resolved: []domain.Market{
		{ID: "m1", CurrentPrice: 0.9, Outcome: outcome(true)},
		{ID: "m2"}, // listed but not resolved yet
	}}
	oracle := &recordingOracle{}
	r := discovery.NewResolver(provider, ledger, oracle, domain.ModePaper)

	n, err := r.ResolvePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, resolution{domain.OutcomeWin, 5}, ledger.resolved["t1"])
	assert.Equal(t, resolution{domain.OutcomeLoss, -3}, ledger.resolved["t2"])
	assert.NotContains(t, ledger.resolved, "t3")

	require.Len(t, oracle.samples, 2)
	assert.Equal(t, sample{"a", "k1", domain.SideYes, true}, oracle.samples[0])
	// Sin feature key guardada se deriva del precio resuelto.
	assert.Equal(t, sample{"b", "hi", domain.SideNo, false}, oracle.samples[1])
}

func TestResolvePending_NeverSettlesTwice(t *testing.T) {
	ledger := &fakeLedger{pending: []domain.Trade{
		{ID: "t1", BotName: "a", MarketID: "m1", Side: domain.SideYes, Amount: 5},
	}}
	provider := &fakeMarkets{resolved: []domain.Market{{ID: "m1", Outcome: outcome(false)}}}
	oracle := &recordingOracle{}
	r := discovery.NewResolver(provider, ledger, oracle, domain.ModePaper)

	n, err := r.ResolvePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.ResolvePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, oracle.samples, 1)
}

func TestResolvePending_NoPendingSkipsProvider(t *testing.T) {
	provider := &fakeMarkets{err: assert.AnError}
	r := discovery.NewResolver(provider, &fakeLedger{}, &recordingOracle{}, domain.ModePaper)
	n, err := r.ResolvePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
