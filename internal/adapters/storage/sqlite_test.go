package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polyarena/internal/adapters/storage"
	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeTrade(id, bot string, side domain.Side, amount float64, created time.Time) domain.Trade {
	return domain.Trade{
		ID:             id,
		BotName:        bot,
		MarketID:       "m-" + id,
		MarketQuestion: "Bitcoin Up or Down 10:00PM-10:05PM",
		Side:           side,
		Amount:         amount,
		Venue:          "polymarket",
		Mode:           domain.ModePaper,
		Confidence:     0.4,
		Features:       "p5_up",
		ExternalID:     "sim-" + id,
		Outcome:        domain.OutcomePending,
		CreatedAt:      created,
	}
}

func TestTrades_LogAndPending(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, db.LogTrade(ctx, makeTrade("t1", "a", domain.SideYes, 4, now)))
	require.NoError(t, db.LogTrade(ctx, makeTrade("t2", "b", domain.SideNo, 2, now.Add(time.Second))))

	pending, err := db.PendingTrades(ctx, domain.ModePaper)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "t1", pending[0].ID)
	assert.Equal(t, domain.SideYes, pending[0].Side)
	assert.Equal(t, "p5_up", pending[0].Features)
	assert.Equal(t, "sim-t1", pending[0].ExternalID)
	assert.Equal(t, domain.OutcomePending, pending[0].Outcome)
	assert.True(t, now.Equal(pending[0].CreatedAt))
	assert.Nil(t, pending[0].ResolvedAt)

	live, err := db.PendingTrades(ctx, domain.ModeLive)
	require.NoError(t, err)
	assert.Empty(t, live)

	assert.Error(t, db.LogTrade(ctx, makeTrade("t1", "a", domain.SideYes, 4, now)), "duplicate id")
}

func TestTrades_ResolveOnlyOnce(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	now := time.Now().UTC()
	require.NoError(t, db.LogTrade(ctx, makeTrade("t1", "a", domain.SideYes, 4, now)))

	ok, err := db.ResolveTrade(ctx, "t1", domain.OutcomeWin, 4, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.ResolveTrade(ctx, "t1", domain.OutcomeLoss, -4, now)
	require.NoError(t, err)
	assert.False(t, ok)

	trades, err := db.RecentTrades(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.OutcomeWin, trades[0].Outcome)
	assert.Equal(t, 4.0, trades[0].PnL)
	require.NotNil(t, trades[0].ResolvedAt)

	pending, err := db.PendingTrades(ctx, domain.ModePaper)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTrades_DailyLossIsNetSinceCutoff(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	midnight := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	yesterday := midnight.Add(-time.Hour)
	today := midnight.Add(time.Hour)

	seed := []struct {
		id, bot string
		pnl     float64
		at      time.Time
	}{
		{"t1", "a", -30, yesterday}, // antes del corte
		{"t2", "a", -20, today},
		{"t3", "a", 5, today},
		{"t4", "b", -10, today},
		{"t5", "c", 40, today},
	}
	for _, s := range seed {
		amount := s.pnl
		if amount < 0 {
			amount = -amount
		}
		require.NoError(t, db.LogTrade(ctx, makeTrade(s.id, s.bot, domain.SideYes, amount, s.at)))
		outcome := domain.OutcomeWin
		if s.pnl < 0 {
			outcome = domain.OutcomeLoss
		}
		_, err := db.ResolveTrade(ctx, s.id, outcome, s.pnl, s.at)
		require.NoError(t, err)
	}
	// Pendiente: no cuenta.
	require.NoError(t, db.LogTrade(ctx, makeTrade("t6", "a", domain.SideYes, 100, today)))

	loss, err := db.BotDailyLoss(ctx, "a", domain.ModePaper, midnight)
	require.NoError(t, err)
	assert.InDelta(t, 15, loss, 1e-9)

	loss, err = db.BotDailyLoss(ctx, "c", domain.ModePaper, midnight)
	require.NoError(t, err)
	assert.Zero(t, loss)

	total, err := db.TotalDailyLoss(ctx, domain.ModePaper, midnight)
	require.NoError(t, err)
	assert.Zero(t, total, "c's win offsets a and b")

	total, err = db.TotalDailyLoss(ctx, domain.ModeLive, midnight)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTrades_BotPerformance(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	now := time.Now().UTC()
	since := now.Add(-12 * time.Hour)

	require.NoError(t, db.LogTrade(ctx, makeTrade("old", "a", domain.SideYes, 9, now.Add(-24*time.Hour))))
	_, err := db.ResolveTrade(ctx, "old", domain.OutcomeWin, 9, now.Add(-20*time.Hour))
	require.NoError(t, err)

	for i, pnl := range []float64{4, 4, -3} {
		id := string(rune('x' + i))
		require.NoError(t, db.LogTrade(ctx, makeTrade(id, "a", domain.SideYes, 4, now)))
		outcome := domain.OutcomeWin
		if pnl < 0 {
			outcome = domain.OutcomeLoss
		}
		_, err := db.ResolveTrade(ctx, id, outcome, pnl, now)
		require.NoError(t, err)
	}
	require.NoError(t, db.LogTrade(ctx, makeTrade("open", "a", domain.SideNo, 2, now)))

	p, err := db.BotPerformance(ctx, "a", domain.ModePaper, since)
	require.NoError(t, err)
	assert.Equal(t, "a", p.BotName)
	assert.InDelta(t, 5, p.PnL, 1e-9)
	assert.Equal(t, 2, p.Wins)
	assert.Equal(t, 1, p.Losses)
	assert.Equal(t, 4, p.Trades)

	empty, err := db.BotPerformance(ctx, "nobody", domain.ModePaper, since)
	require.NoError(t, err)
	assert.Zero(t, empty.Trades)
	assert.Zero(t, empty.PnL)
}

func TestBots_SaveRetireAndPausedJoin(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	t0 := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	a := domain.Bot{Name: "momentum-v1", StrategyType: "momentum", CreatedAt: t0,
		Params: domain.Params{"lookback_candles": domain.I(5), "min_confidence": domain.F(0.6)}}
	b := domain.Bot{Name: "hybrid-g1-123", StrategyType: "hybrid", Generation: 1, CreatedAt: t0.Add(time.Minute),
		Lineage: domain.ChildLineage("momentum-v1", "hybrid-g1-123"), Params: domain.Params{"w": domain.F(0.3)}}
	require.NoError(t, db.SaveBotConfig(ctx, a))
	require.NoError(t, db.SaveBotConfig(ctx, b))
	require.NoError(t, db.SetPaused(ctx, "momentum-v1", true, "daily_loss_limit"))

	bots, err := db.ActiveBots(ctx)
	require.NoError(t, err)
	require.Len(t, bots, 2)
	assert.Equal(t, "momentum-v1", bots[0].Name)
	assert.Equal(t, a.Params, bots[0].Params)
	assert.True(t, bots[0].Paused)
	assert.Equal(t, 1, bots[1].Generation)
	assert.Equal(t, "momentum-v1→hybrid-g1-123", bots[1].Lineage)
	assert.False(t, bots[1].Paused)

	require.NoError(t, db.RetireBot(ctx, "momentum-v1"))
	assert.Error(t, db.RetireBot(ctx, "momentum-v1"))

	bots, err = db.ActiveBots(ctx)
	require.NoError(t, err)
	require.Len(t, bots, 1)
	assert.Equal(t, "hybrid-g1-123", bots[0].Name)
}

func TestEvolution_LogAndLatestCycle(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	cycle, err := db.LatestCycle(ctx)
	require.NoError(t, err)
	assert.Zero(t, cycle)

	rec := domain.EvolutionRecord{
		Cycle:     1,
		Survivors: []string{"a", "c"},
		Replaced:  []string{"b", "d"},
		NewBots:   []string{"mean_reversion-g1-123", "hybrid-g1-456"},
		Rankings: []domain.Ranking{
			{Rank: 1, BotName: "a", Performance: domain.Performance{BotName: "a", PnL: 50, Wins: 3}},
		},
		CreatedAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.LogEvolution(ctx, rec))
	require.NoError(t, db.LogEvolution(ctx, domain.EvolutionRecord{Cycle: 2}))
	assert.Error(t, db.LogEvolution(ctx, domain.EvolutionRecord{Cycle: 2}))

	cycle, err = db.LatestCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cycle)

	recs, err := db.RecentEvolutions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].Cycle)
	assert.Equal(t, rec, recs[1])
}

func TestRiskState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, db.SetPaused(ctx, "a", true, "daily_loss_limit"))
	require.NoError(t, db.SetPaused(ctx, "b", true, "daily_loss_limit"))
	require.NoError(t, db.SetPaused(ctx, "b", false, "evolution reset"))

	paused, err := db.PausedBots(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": false}, paused)
}
