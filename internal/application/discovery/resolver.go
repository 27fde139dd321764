package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/metrics"
	"github.com/alejandrodnm/polyarena/internal/ports"
)

// Resolver settles pending trades against the resolved-market listing and
// feeds each outcome to the bias oracle.
type Resolver struct {
	markets ports.MarketProvider
	ledger  ports.TradeLedger
	oracle  ports.BiasOracle
	mode    domain.Mode
	now     func() time.Time
}

// NewResolver crea un Resolver para el modo dado.
func NewResolver(markets ports.MarketProvider, ledger ports.TradeLedger, oracle ports.BiasOracle, mode domain.Mode) *Resolver {
	return &Resolver{
		markets: markets,
		ledger:  ledger,
		oracle:  oracle,
		mode:    mode,
		now:     time.Now,
	}
}

// ResolvePending devuelve cuántos trades se resolvieron en esta pasada.
// Trades whose market is not resolved yet stay pending.
func (r *Resolver) ResolvePending(ctx context.Context) (int, error) {
	pending, err := r.ledger.PendingTrades(ctx, r.mode)
	if err != nil {
		return 0, fmt.Errorf("discovery.ResolvePending: pending trades: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	resolved, err := r.markets.ResolvedMarkets(ctx)
	if err != nil {
		return 0, fmt.Errorf("discovery.ResolvePending: resolved markets: %w", err)
	}
	byID := make(map[string]domain.Market, len(resolved))
	for _, m := range resolved {
		if m.Resolved() {
			byID[m.ID] = m
		}
	}

	count := 0
	for _, t := range pending {
		m, ok := byID[t.MarketID]
		if !ok {
			continue
		}
		outcome, pnl := t.Settle(*m.Outcome)
		updated, err := r.ledger.ResolveTrade(ctx, t.ID, outcome, pnl, r.now().UTC())
		if err != nil {
			return count, fmt.Errorf("discovery.ResolvePending: resolve %s: %w", t.ID, err)
		}
		if !updated {
			continue
		}
		count++
		metrics.Resolutions.WithLabelValues(string(outcome)).Inc()
		metrics.RealizedPnL.Add(pnl)

		key := t.Features
		if key == "" {
			key = r.oracle.ExtractFeatures(domain.FeatureInput{MarketPrice: m.CurrentPrice})
		}
		if err := r.oracle.RecordOutcome(t.BotName, key, t.Side, outcome == domain.OutcomeWin); err != nil {
			// El trade ya está resuelto; solo se pierde una muestra de aprendizaje.
			slog.Warn("discovery: record outcome failed", "bot", t.BotName, "trade", t.ID, "err", err)
		}
	}

	if count > 0 {
		slog.Info("discovery: trades resolved",
			"resolved", count, "pending", len(pending), "resolved_markets", len(byID))
	}
	return count, nil
}
