// Package evolution runs the periodic tournament: bots are ranked by realized
// pnl over a trailing window, the top K survive and every loser is replaced by
// a mutated child of a random survivor.
//
//	COLLECT → RANK → SELECT → MUTATE → PERSIST → RESET
//
// Due is polled by the control loop, so a cycle fires up to one loop interval
// after it is owed.
package evolution

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/metrics"
	"github.com/alejandrodnm/polyarena/internal/ports"
	"github.com/alejandrodnm/polyarena/internal/strategy"
)

// Config contiene los parámetros del torneo.
type Config struct {
	Interval     time.Duration // cada cuánto corre un ciclo
	Window       time.Duration // ventana de performance
	Survivors    int
	MutationRate float64
	Mode         domain.Mode
}

// DefaultConfig: ciclos de 12h, 2 supervivientes, ±20%.
func DefaultConfig() Config {
	return Config{
		Interval:     12 * time.Hour,
		Window:       12 * time.Hour,
		Survivors:    2,
		MutationRate: 0.2,
		Mode:         domain.ModePaper,
	}
}

// PauseResetter clears a bot's risk pause.
type PauseResetter interface {
	Reset(ctx context.Context, bot string) error
}

// EpochClearer starts a new dedup epoch.
type EpochClearer interface {
	Clear()
}

// Scheduler owns the cycle counter and the time of the last cycle.
type Scheduler struct {
	cfg      Config
	registry strategy.Registry
	ledger   ports.TradeLedger
	bots     ports.BotStore
	history  ports.EvolutionLog
	exporter ports.ParamExporter
	notifier ports.EvolutionNotifier
	gate     PauseResetter
	epoch    EpochClearer
	mutator  *Mutator
	rng      *rand.Rand
	now      func() time.Time

	cycle int
	last  time.Time
}

// Deps agrupa los colaboradores del Scheduler.
type Deps struct {
	Registry strategy.Registry
	Ledger   ports.TradeLedger
	Bots     ports.BotStore
	History  ports.EvolutionLog
	Exporter ports.ParamExporter     // optional
	Notifier ports.EvolutionNotifier // optional
	Gate     PauseResetter
	Epoch    EpochClearer
}

// NewScheduler crea un Scheduler. The first cycle is due one Interval after
// construction.
func NewScheduler(cfg Config, deps Deps, rng *rand.Rand) *Scheduler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Survivors <= 0 {
		cfg.Survivors = def.Survivors
	}
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = def.MutationRate
	}
	s := &Scheduler{
		cfg:      cfg,
		registry: deps.Registry,
		ledger:   deps.Ledger,
		bots:     deps.Bots,
		history:  deps.History,
		exporter: deps.Exporter,
		notifier: deps.Notifier,
		gate:     deps.Gate,
		epoch:    deps.Epoch,
		mutator:  NewMutator(cfg.MutationRate, rng),
		rng:      rng,
		now:      time.Now,
	}
	s.last = s.now()
	return s
}

// WithClock replaces the time source and restarts the interval from it.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	s.last = now()
	return s
}

// Restore resumes the cycle counter from the evolution log.
func (s *Scheduler) Restore(ctx context.Context) error {
	n, err := s.history.LatestCycle(ctx)
	if err != nil {
		return fmt.Errorf("evolution.Restore: %w", err)
	}
	s.cycle = n
	if n > 0 {
		slog.Info("evolution: resumed", "last_cycle", n)
	}
	return nil
}

// Cycle devuelve el número del último ciclo completado o iniciado.
func (s *Scheduler) Cycle() int {
	return s.cycle
}

// Due reports whether a cycle is owed at now.
func (s *Scheduler) Due(now time.Time) bool {
	return now.Sub(s.last) >= s.cfg.Interval
}

// Run executes one cycle over roster and returns the new roster (survivors
// first, then children) and the record written to the evolution log.
//
// The cycle number and timer advance before PERSIST: a persistence failure
// is reported but the cycle is not retried.
func (s *Scheduler) Run(ctx context.Context, roster []domain.Bot) ([]domain.Bot, domain.EvolutionRecord, error) {
	if len(roster) == 0 {
		return roster, domain.EvolutionRecord{}, fmt.Errorf("evolution.Run: empty roster: %w", domain.ErrConfiguration)
	}
	now := s.now()
	s.cycle++
	s.last = now
	cycle := s.cycle

	slog.Info("evolution: cycle starting", "cycle", cycle, "bots", len(roster))

	// COLLECT
	since := now.Add(-s.cfg.Window)
	perf := make(map[string]domain.Performance, len(roster))
	for _, b := range roster {
		p, err := s.ledger.BotPerformance(ctx, b.Name, s.cfg.Mode, since)
		if err != nil {
			return roster, domain.EvolutionRecord{}, fmt.Errorf("evolution.Run: performance %s: %w", b.Name, err)
		}
		perf[b.Name] = p
	}

	// RANK
	rankings := Rank(roster, perf)

	// SELECT
	k := s.cfg.Survivors
	if k > len(roster) {
		k = len(roster)
	}
	byName := make(map[string]domain.Bot, len(roster))
	for _, b := range roster {
		byName[b.Name] = b
	}
	survivors := make([]domain.Bot, 0, k)
	losers := make([]domain.Bot, 0, len(roster)-k)
	for i, r := range rankings {
		if i < k {
			survivors = append(survivors, byName[r.BotName])
		} else {
			losers = append(losers, byName[r.BotName])
		}
	}

	// MUTATE
	taken := make(map[string]bool, len(roster))
	for _, b := range roster {
		taken[b.Name] = true
	}
	children := make([]domain.Bot, 0, len(losers))
	for _, loser := range losers {
		parent := survivors[s.rng.Intn(len(survivors))]
		child, err := s.spawn(parent, loser.StrategyType, cycle, taken, now)
		if err != nil {
			return roster, domain.EvolutionRecord{}, fmt.Errorf("evolution.Run: spawn for %s: %w", loser.Name, err)
		}
		children = append(children, child)
	}

	rec := domain.EvolutionRecord{
		Cycle:     cycle,
		Survivors: names(survivors),
		Replaced:  names(losers),
		NewBots:   names(children),
		Rankings:  rankings,
		CreatedAt: now.UTC(),
	}

	// PERSIST
	for i, child := range children {
		if err := s.bots.SaveBotConfig(ctx, child); err != nil {
			return roster, rec, fmt.Errorf("evolution.Run: save %s: %w", child.Name, err)
		}
		if s.exporter != nil {
			if err := s.exporter.Export(child); err != nil {
				slog.Warn("evolution: export params failed", "bot", child.Name, "err", err)
			}
		}
		if err := s.bots.RetireBot(ctx, losers[i].Name); err != nil {
			return roster, rec, fmt.Errorf("evolution.Run: retire %s: %w", losers[i].Name, err)
		}
	}
	if err := s.history.LogEvolution(ctx, rec); err != nil {
		return roster, rec, fmt.Errorf("evolution.Run: log cycle: %w", err)
	}

	// RESET
	for _, b := range survivors {
		if err := s.gate.Reset(ctx, b.Name); err != nil {
			slog.Warn("evolution: reset pause failed", "bot", b.Name, "err", err)
		}
	}
	s.epoch.Clear()

	metrics.EvolutionCycles.Inc()
	for _, r := range rankings {
		slog.Info("evolution: ranking",
			"cycle", cycle,
			"rank", r.Rank,
			"bot", r.BotName,
			"pnl", fmt.Sprintf("%.2f", r.Performance.PnL),
			"win_rate", fmt.Sprintf("%.2f", r.Performance.WinRate()),
			"trades", r.Performance.Trades,
			"survives", r.Rank <= k,
		)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyEvolution(ctx, rec); err != nil {
			slog.Warn("evolution: notify failed", "err", err)
		}
	}

	next := make([]domain.Bot, 0, len(roster))
	next = append(next, survivors...)
	next = append(next, children...)
	return next, rec, nil
}

// spawn builds a child of parent for family typ.
func (s *Scheduler) spawn(parent domain.Bot, typ string, cycle int, taken map[string]bool, now time.Time) (domain.Bot, error) {
	base, err := s.registry.Compatible(typ, parent.Params)
	if err != nil {
		return domain.Bot{}, err
	}
	params, touched := s.mutator.Mutate(base)

	var name string
	for {
		name = fmt.Sprintf("%s-g%d-%d", typ, cycle, 100+s.rng.Intn(900))
		if !taken[name] {
			break
		}
	}
	taken[name] = true

	slog.Info("evolution: child created",
		"bot", name, "parent", parent.Name, "family", typ, "mutated", touched)

	return domain.Bot{
		Name:         name,
		StrategyType: typ,
		Params:       params,
		Generation:   cycle,
		Lineage:      domain.ChildLineage(parent.Name, name),
		CreatedAt:    now.UTC(),
	}, nil
}

func names(bots []domain.Bot) []string {
	out := make([]string, len(bots))
	for i, b := range bots {
		out[i] = b.Name
	}
	return out
}
