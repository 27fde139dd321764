package arena

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/metrics"
)

// RunCycle runs one iteration of the control loop. Only a discovery failure
// fails the cycle; every other step degrades and is logged.
func (a *Arena) RunCycle(ctx context.Context) (report domain.CycleReport, err error) {
	start := a.now()
	report.StartedAt = start
	defer func() {
		report.Duration = a.now().Sub(start)
		metrics.CycleDuration.Observe(report.Duration.Seconds())
	}()

	if a.deps.Evolution != nil && a.deps.Evolution.Due(start) {
		report.Evolved = a.evolve(ctx)
	}

	resolved, err := a.deps.Resolver.ResolvePending(ctx)
	if err != nil {
		slog.Warn("arena: resolve failed", "err", err)
	}
	report.Resolved = resolved

	markets, err := a.deps.Discoverer.Discover(ctx)
	if err != nil {
		return report, fmt.Errorf("arena.RunCycle: discover: %w", err)
	}
	report.Markets = len(markets)
	if len(markets) == 0 {
		slog.Debug("arena: no eligible markets")
		a.print(report)
		return report, nil
	}

	signals := a.collectSignals(ctx, markets)
	roster := a.snapshot()
	for _, m := range markets {
		for _, e := range roster {
			if a.deps.Epoch.Seen(e.bot.Name, m.ID) {
				report.Skipped++
				continue
			}
			res := a.processPair(ctx, e, m, signals[m.ID])
			a.deps.Epoch.Mark(e.bot.Name, m.ID)

			report.Attempts++
			if res.Success {
				report.Trades++
			} else {
				report.Reject(res.Reason)
			}
		}
	}

	slog.Info("arena: cycle complete",
		"markets", report.Markets,
		"attempts", report.Attempts,
		"trades", report.Trades,
		"skipped", report.Skipped,
		"resolved", report.Resolved,
	)
	a.print(report)
	return report, nil
}

// processPair analyzes, blends and executes one (bot, market) pair. Panics
// are contained and reported as execution errors.
func (a *Arena) processPair(ctx context.Context, e entrant, m domain.Market, sig domain.Signals) (res domain.ExecutionResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("arena: pair failed", "bot", e.bot.Name, "market", m.ID, "panic", p)
			res = domain.ExecutionResult{Reason: domain.ReasonExecutionError, Detail: fmt.Sprintf("panic: %v", p)}
		}
	}()

	raw := e.strat.Analyze(m, sig)
	intent := a.deps.Decider.Blend(e.bot.Name, m, sig, raw)
	metrics.Decisions.WithLabelValues(e.bot.Name, string(intent.Side)).Inc()

	slog.Debug("arena: decision",
		"bot", e.bot.Name,
		"market", m.ID,
		"raw", raw.Action,
		"side", intent.Side,
		"confidence", fmt.Sprintf("%.2f", intent.Confidence),
		"amount", fmt.Sprintf("%.2f", intent.SuggestedAmount),
	)
	return a.deps.Executor.Execute(ctx, e.bot.Name, e.strat.Capabilities(), m, intent)
}

// evolve runs the evolution cycle. On failure the roster is reloaded from
// the store so the loop keeps trading with whatever was persisted.
func (a *Arena) evolve(ctx context.Context) bool {
	next, rec, err := a.deps.Evolution.Run(ctx, a.Roster())
	if err != nil {
		slog.Error("arena: evolution failed", "err", err)
		if bots, lerr := a.deps.Bots.ActiveBots(ctx); lerr == nil && len(bots) > 0 {
			a.setRoster(bots)
		}
		return false
	}
	a.setRoster(next)
	slog.Info("arena: roster evolved", "cycle", rec.Cycle, "new_bots", rec.NewBots)
	return true
}

func (a *Arena) snapshot() []entrant {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]entrant(nil), a.entrants...)
}

func (a *Arena) print(r domain.CycleReport) {
	if a.deps.Reporter == nil {
		return
	}
	r.Duration = a.now().Sub(r.StartedAt)
	a.deps.Reporter.PrintCycle(r)
}
