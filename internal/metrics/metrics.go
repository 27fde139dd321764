// Package metrics holds the Prometheus series the arena updates while running.
//
//   - arena_decisions_total{bot,side}       blended decisions produced
//   - arena_trades_total{bot,mode}          trades persisted to the ledger
//   - arena_rejections_total{bot,reason}    attempts that produced no trade
//   - arena_resolutions_total{outcome}      trades settled (win|loss)
//   - arena_realized_pnl_usd                running realized pnl since start
//   - arena_paused_bots                     bots currently paused by the risk gate
//   - arena_eligible_markets                markets that passed discovery last cycle
//   - arena_evolution_cycles_total          completed evolution cycles
//   - arena_cycle_duration_seconds          wall time of one trading cycle
//
// Series are registered in init() and served at /metrics by cmd/arena.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_decisions_total",
			Help: "Blended decisions produced",
		},
		[]string{"bot", "side"},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_trades_total",
			Help: "Trades persisted to the ledger",
		},
		[]string{"bot", "mode"},
	)

	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_rejections_total",
			Help: "Execution attempts rejected, by reason code",
		},
		[]string{"bot", "reason"},
	)

	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_resolutions_total",
			Help: "Trades resolved, by outcome",
		},
		[]string{"outcome"},
	)

	RealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_realized_pnl_usd",
			Help: "Realized pnl of trades resolved since start",
		},
	)

	PausedBots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_paused_bots",
			Help: "Bots paused by the daily loss limit",
		},
	)

	EligibleMarkets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_eligible_markets",
			Help: "Markets that passed discovery in the last cycle",
		},
	)

	EvolutionCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_evolution_cycles_total",
			Help: "Completed evolution cycles",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arena_cycle_duration_seconds",
			Help:    "Duration of one trading cycle",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(Decisions, Trades, Rejections, Resolutions)
	prometheus.MustRegister(RealizedPnL, PausedBots, EligibleMarkets)
	prometheus.MustRegister(EvolutionCycles, CycleDuration)
}
