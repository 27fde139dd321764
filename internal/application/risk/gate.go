package risk

// gate.go — two-tier daily loss circuit breaker.
//
//   per-bot:  realized loss today >= BotDailyLoss   → bot paused (persisted), rejected
//   arena:    realized loss today >= TotalDailyLoss → everyone rejected, nobody paused
//
// A paused bot stays paused until Reset, which only the evolution cycle calls.
// Limits <= 0 disable the corresponding tier.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/metrics"
	"github.com/alejandrodnm/polyarena/internal/ports"
)

// Limits are the loss caps in USDC.
type Limits struct {
	BotDailyLoss   float64
	TotalDailyLoss float64
}

// Rejection is returned by Allow when a trade must not be placed.
type Rejection struct {
	Reason domain.RejectReason
	Bot    string
	cause  error
}

func (r *Rejection) Error() string {
	if r.cause != nil {
		return fmt.Sprintf("risk: %s rejected (%s): %v", r.Bot, r.Reason, r.cause)
	}
	return fmt.Sprintf("risk: %s rejected (%s)", r.Bot, r.Reason)
}

// Unwrap exposes the query error for risk_check_error, and the risk limit
// class for everything else.
func (r *Rejection) Unwrap() error {
	if r.cause != nil {
		return r.cause
	}
	return domain.ErrRiskLimitExceeded
}

// ReasonOf extracts the reject reason from err, or ReasonNone.
func ReasonOf(err error) domain.RejectReason {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return domain.ReasonNone
}

// Gate is touched only by the control loop; it holds no locks.
type Gate struct {
	ledger ports.TradeLedger
	state  ports.RiskStateStore
	mode   domain.Mode
	limits Limits
	paused map[string]bool
	now    func() time.Time
}

// NewGate crea un Gate para el modo de trading dado.
func NewGate(ledger ports.TradeLedger, state ports.RiskStateStore, mode domain.Mode, limits Limits) *Gate {
	return &Gate{
		ledger: ledger,
		state:  state,
		mode:   mode,
		limits: limits,
		paused: make(map[string]bool),
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Restore carga los pause flags persistidos, para que un reinicio no
// reactive bots pausados.
func (g *Gate) Restore(ctx context.Context) error {
	paused, err := g.state.PausedBots(ctx)
	if err != nil {
		return fmt.Errorf("risk.Restore: %w", err)
	}
	g.paused = make(map[string]bool, len(paused))
	for bot, p := range paused {
		if p {
			g.paused[bot] = true
		}
	}
	metrics.PausedBots.Set(float64(len(g.paused)))
	if len(g.paused) > 0 {
		slog.Info("risk: restored paused bots", "count", len(g.paused))
	}
	return nil
}

// Paused reports whether bot is paused.
func (g *Gate) Paused(bot string) bool {
	return g.paused[bot]
}

// Allow returns nil when bot may trade now, or a *Rejection.
// Loss query failures reject (fail closed).
func (g *Gate) Allow(ctx context.Context, bot string) error {
	if g.paused[bot] {
		return &Rejection{Reason: domain.ReasonBotPaused, Bot: bot}
	}

	since := startOfDay(g.now())

	if g.limits.BotDailyLoss > 0 {
		loss, err := g.ledger.BotDailyLoss(ctx, bot, g.mode, since)
		if err != nil {
			return &Rejection{Reason: domain.ReasonRiskCheckError, Bot: bot, cause: err}
		}
		if loss >= g.limits.BotDailyLoss {
			g.pause(ctx, bot, loss)
			return &Rejection{Reason: domain.ReasonDailyLossLimit, Bot: bot}
		}
	}

	if g.limits.TotalDailyLoss > 0 {
		total, err := g.ledger.TotalDailyLoss(ctx, g.mode, since)
		if err != nil {
			return &Rejection{Reason: domain.ReasonRiskCheckError, Bot: bot, cause: err}
		}
		if total >= g.limits.TotalDailyLoss {
			slog.Warn("risk: arena daily loss limit reached",
				"bot", bot, "loss", total, "limit", g.limits.TotalDailyLoss)
			return &Rejection{Reason: domain.ReasonArenaLossLimit, Bot: bot}
		}
	}
	return nil
}

// Reset clears the pause flag of bot. Only the evolution cycle calls it.
func (g *Gate) Reset(ctx context.Context, bot string) error {
	if !g.paused[bot] {
		return nil
	}
	delete(g.paused, bot)
	metrics.PausedBots.Set(float64(len(g.paused)))
	if err := g.state.SetPaused(ctx, bot, false, ""); err != nil {
		return fmt.Errorf("risk.Reset %s: %w", bot, err)
	}
	slog.Info("risk: bot unpaused", "bot", bot)
	return nil
}

func (g *Gate) pause(ctx context.Context, bot string, loss float64) {
	g.paused[bot] = true
	metrics.PausedBots.Set(float64(len(g.paused)))
	slog.Warn("risk: bot paused by daily loss limit",
		"bot", bot, "loss", loss, "limit", g.limits.BotDailyLoss)

	reason := fmt.Sprintf("daily loss %.2f >= %.2f", loss, g.limits.BotDailyLoss)
	if err := g.state.SetPaused(ctx, bot, true, reason); err != nil {
		// El flag en memoria sigue activo; solo se pierde tras un reinicio.
		slog.Error("risk: persist pause failed", "bot", bot, "err", err)
	}
}

// startOfDay devuelve la medianoche UTC del día de t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
