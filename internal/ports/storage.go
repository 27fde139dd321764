package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// TradeLedger is the append-only trade log with update-once resolution.
type TradeLedger interface {
	LogTrade(ctx context.Context, t domain.Trade) error

	// PendingTrades devuelve los trades sin resolver del modo dado.
	PendingTrades(ctx context.Context, mode domain.Mode) ([]domain.Trade, error)

	// ResolveTrade writes outcome and pnl. It returns false when the trade was
	// already resolved, so a trade is never settled twice.
	ResolveTrade(ctx context.Context, id string, outcome domain.Outcome, pnl float64, at time.Time) (bool, error)

	// BotDailyLoss and TotalDailyLoss return realized losses as positive numbers
	// for trades resolved on or after since.
	BotDailyLoss(ctx context.Context, bot string, mode domain.Mode, since time.Time) (float64, error)
	TotalDailyLoss(ctx context.Context, mode domain.Mode, since time.Time) (float64, error)

	BotPerformance(ctx context.Context, bot string, mode domain.Mode, since time.Time) (domain.Performance, error)
}

// BotStore persists bot configurations.
type BotStore interface {
	SaveBotConfig(ctx context.Context, b domain.Bot) error
	ActiveBots(ctx context.Context) ([]domain.Bot, error)
	RetireBot(ctx context.Context, name string) error
}

// EvolutionLog is the append-only evolution history.
type EvolutionLog interface {
	LogEvolution(ctx context.Context, rec domain.EvolutionRecord) error
	LatestCycle(ctx context.Context) (int, error)
}

// RiskStateStore persists per-bot pause flags.
type RiskStateStore interface {
	SetPaused(ctx context.Context, bot string, paused bool, reason string) error
	PausedBots(ctx context.Context) (map[string]bool, error)
}

// ParamExporter writes a bot's parameter snapshot outside the database.
type ParamExporter interface {
	Export(b domain.Bot) error
}
