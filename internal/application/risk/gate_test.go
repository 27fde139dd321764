package risk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/polyarena/internal/application/risk"
	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	botLoss map[string]float64
	total   float64
	err     error
	since   time.Time
}

func (f *fakeLedger) LogTrade(context.Context, domain.Trade) error { return nil }
func (f *fakeLedger) PendingTrades(context.Context, domain.Mode) ([]domain.Trade, error) {
	return nil, nil
}
func (f *fakeLedger) ResolveTrade(context.Context, string, domain.Outcome, float64, time.Time) (bool, error) {
	return true, nil
}
func (f *fakeLedger) BotDailyLoss(_ context.Context, bot string, _ domain.Mode, since time.Time) (float64, error) {
	f.since = since
	return f.botLoss[bot], f.err
}
func (f *fakeLedger) TotalDailyLoss(context.Context, domain.Mode, time.Time) (float64, error) {
	return f.total, f.err
}
func (f *fakeLedger) BotPerformance(context.Context, string, domain.Mode, time.Time) (domain.Performance, error) {
	return domain.Performance{}, nil
}

type fakeState struct {
	paused map[string]bool
}

func (f *fakeState) SetPaused(_ context.Context, bot string, paused bool, _ string) error {
	if f.paused == nil {
		f.paused = map[string]bool{}
	}
	f.paused[bot] = paused
	return nil
}

func (f *fakeState) PausedBots(context.Context) (map[string]bool, error) {
	return f.paused, nil
}

var limits = risk.Limits{BotDailyLoss: 50, TotalDailyLoss: 150}

func TestGate_AllowsUnderLimits(t *testing.T) {
	g := risk.NewGate(&fakeLedger{botLoss: map[string]float64{"a": 10}, total: 20}, &fakeState{}, domain.ModePaper, limits)
	assert.NoError(t, g.Allow(context.Background(), "a"))
}

func TestGate_BotLimitPausesUntilReset(t *testing.T) {
	ctx := context.Background()
	ledger := &fakeLedger{botLoss: map[string]float64{"a": 50}}
	state := &fakeState{}
	g := risk.NewGate(ledger, state, domain.ModePaper, limits)

	err := g.Allow(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, domain.ReasonDailyLossLimit, risk.ReasonOf(err))
	assert.ErrorIs(t, err, domain.ErrRiskLimitExceeded)
	assert.True(t, g.Paused("a"))
	assert.True(t, state.paused["a"])

	// Loss recovers but the bot stays paused.
	ledger.botLoss["a"] = 0
	assert.Equal(t, domain.ReasonBotPaused, risk.ReasonOf(g.Allow(ctx, "a")))

	require.NoError(t, g.Reset(ctx, "a"))
	assert.False(t, state.paused["a"])
	assert.NoError(t, g.Allow(ctx, "a"))
}

func TestGate_ArenaLimitRejectsWithoutPausing(t *testing.T) {
	ctx := context.Background()
	state := &fakeState{}
	g := risk.NewGate(&fakeLedger{botLoss: map[string]float64{}, total: 150}, state, domain.ModePaper, limits)

	for _, bot := range []string{"a", "b", "c"} {
		assert.Equal(t, domain.ReasonArenaLossLimit, risk.ReasonOf(g.Allow(ctx, bot)))
		assert.False(t, g.Paused(bot))
	}
	assert.Empty(t, state.paused)
}

func TestGate_QueryErrorFailsClosed(t *testing.T) {
	boom := errors.New("db locked")
	g := risk.NewGate(&fakeLedger{err: boom}, &fakeState{}, domain.ModePaper, limits)

	err := g.Allow(context.Background(), "a")
	assert.Equal(t, domain.ReasonRiskCheckError, risk.ReasonOf(err))
	assert.ErrorIs(t, err, boom)
	assert.False(t, g.Paused("a"))
}

func TestGate_RestoreKeepsPausedAcrossRestart(t *testing.T) {
	state := &fakeState{paused: map[string]bool{"a": true, "b": false}}
	g := risk.NewGate(&fakeLedger{}, state, domain.ModePaper, limits)

	require.NoError(t, g.Restore(context.Background()))
	assert.True(t, g.Paused("a"))
	assert.False(t, g.Paused("b"))
	assert.Equal(t, domain.ReasonBotPaused, risk.ReasonOf(g.Allow(context.Background(), "a")))
}

func TestGate_DayBoundaryIsUTCMidnight(t *testing.T) {
	ledger := &fakeLedger{botLoss: map[string]float64{}}
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	g := risk.NewGate(ledger, &fakeState{}, domain.ModePaper, limits).WithClock(func() time.Time { return now })

	require.NoError(t, g.Allow(context.Background(), "a"))
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), ledger.since)
}

func TestGate_ZeroLimitsDisableTiers(t *testing.T) {
	g := risk.NewGate(&fakeLedger{botLoss: map[string]float64{"a": 1e6}, total: 1e6}, &fakeState{}, domain.ModePaper, risk.Limits{})
	assert.NoError(t, g.Allow(context.Background(), "a"))
}
