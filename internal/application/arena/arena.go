// Package arena is the control loop. Each iteration:
//
//	evolve (if due) → resolve → discover → signals → per (bot, market):
//	    analyze → blend → execute → mark done for the epoch
//
// The loop is sequential. Background feeds are only read through copied
// snapshots, and a failure in one (bot, market) pair never stops the others.
package arena

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/ports"
	"github.com/alejandrodnm/polyarena/internal/strategy"
)

// Config del control loop.
type Config struct {
	Mode             domain.Mode
	Symbol           string        // símbolo del price/sentiment feed
	Interval         time.Duration // pausa entre ciclos con mercados
	NoMarketWait     time.Duration // pausa cuando no hay mercados elegibles
	ErrorBackoff     time.Duration // pausa tras un ciclo fallido
	MaxPosition      float64
	OrderflowWorkers int
	Roster           []string // familias del roster inicial
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Mode:             domain.ModePaper,
		Symbol:           "btc",
		Interval:         60 * time.Second,
		NoMarketWait:     30 * time.Second,
		ErrorBackoff:     10 * time.Second,
		MaxPosition:      10,
		OrderflowWorkers: 4,
		Roster: []string{
			strategy.TypeMomentum,
			strategy.TypeMeanReversion,
			strategy.TypeSentiment,
			strategy.TypeHybrid,
		},
	}
}

// MarketDiscoverer lists the markets eligible this cycle.
type MarketDiscoverer interface {
	Discover(ctx context.Context) ([]domain.Market, error)
}

// TradeResolver settles pending trades.
type TradeResolver interface {
	ResolvePending(ctx context.Context) (int, error)
}

// Decider merges a strategy's raw intent with the learned bias.
type Decider interface {
	Blend(bot string, market domain.Market, signals domain.Signals, raw domain.TradeIntent) domain.TradeIntent
}

// Executor places an intent and always reports an outcome.
type Executor interface {
	Execute(ctx context.Context, bot string, caps strategy.Capabilities, market domain.Market, intent domain.TradeIntent) domain.ExecutionResult
}

// Evolver runs the evolution cycle when due.
type Evolver interface {
	Due(now time.Time) bool
	Run(ctx context.Context, roster []domain.Bot) ([]domain.Bot, domain.EvolutionRecord, error)
}

// Deduper is the per-epoch set of (bot, market) pairs already handled.
type Deduper interface {
	Seen(bot, market string) bool
	Mark(bot, market string)
}

// Reporter prints one line per cycle.
type Reporter interface {
	PrintCycle(r domain.CycleReport)
}

// Deps son los colaboradores del arena. Sentiment, Orderflow y Reporter
// son opcionales.
type Deps struct {
	Registry   strategy.Registry
	Bots       ports.BotStore
	Discoverer MarketDiscoverer
	Resolver   TradeResolver
	Prices     ports.PriceSource
	Sentiment  ports.SentimentSource
	Orderflow  ports.OrderflowSource
	Decider    Decider
	Executor   Executor
	Evolution  Evolver
	Epoch      Deduper
	Reporter   Reporter
}

type entrant struct {
	bot   domain.Bot
	strat strategy.Strategy
}

// Arena owns the roster and runs the control loop.
type Arena struct {
	cfg  Config
	deps Deps
	now  func() time.Time

	mu       sync.RWMutex
	entrants []entrant
}

// New crea un Arena. Llamar Bootstrap antes de Run.
func New(cfg Config, deps Deps) *Arena {
	return &Arena{cfg: cfg, deps: deps, now: time.Now}
}

// WithClock sustituye el reloj (tests).
func (a *Arena) WithClock(now func() time.Time) *Arena {
	a.now = now
	return a
}

// Bootstrap restores the active roster, or saves the default roster when the
// store has none.
func (a *Arena) Bootstrap(ctx context.Context) error {
	bots, err := a.deps.Bots.ActiveBots(ctx)
	if err != nil {
		return fmt.Errorf("arena.Bootstrap: active bots: %w", err)
	}

	if len(bots) == 0 {
		now := a.now().UTC()
		for _, typ := range a.cfg.Roster {
			fam, ok := a.deps.Registry.Get(typ)
			if !ok {
				return fmt.Errorf("arena.Bootstrap: unknown roster family %q (known: %s): %w",
					typ, strings.Join(a.deps.Registry.Types(), ", "), domain.ErrConfiguration)
			}
			b := domain.Bot{
				Name:         typ + "-v1",
				StrategyType: typ,
				Params:       fam.Defaults(),
				CreatedAt:    now,
			}
			if err := a.deps.Bots.SaveBotConfig(ctx, b); err != nil {
				return fmt.Errorf("arena.Bootstrap: save %s: %w", b.Name, err)
			}
			bots = append(bots, b)
		}
		slog.Info("arena: default roster created", "bots", len(bots))
	} else {
		slog.Info("arena: roster restored", "bots", len(bots))
	}

	a.setRoster(bots)
	if len(a.Roster()) == 0 {
		return fmt.Errorf("arena.Bootstrap: no runnable bots: %w", domain.ErrConfiguration)
	}
	return nil
}

// Roster devuelve una copia del roster actual.
func (a *Arena) Roster() []domain.Bot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.Bot, len(a.entrants))
	for i, e := range a.entrants {
		out[i] = e.bot
	}
	return out
}

func (a *Arena) setRoster(bots []domain.Bot) {
	entrants := make([]entrant, 0, len(bots))
	for _, b := range bots {
		s, err := a.deps.Registry.Build(b, a.cfg.MaxPosition)
		if err != nil {
			slog.Error("arena: bot skipped", "bot", b.Name, "err", err)
			continue
		}
		entrants = append(entrants, entrant{bot: b, strat: s})
	}
	a.mu.Lock()
	a.entrants = entrants
	a.mu.Unlock()
}

// Run ejecuta ciclos hasta que ctx se cancele. Con once ejecuta uno solo y
// devuelve su error.
func (a *Arena) Run(ctx context.Context, once bool) error {
	slog.Info("arena: starting",
		"mode", a.cfg.Mode,
		"bots", len(a.Roster()),
		"interval", a.cfg.Interval,
		"once", once,
	)

	for {
		report, err := a.RunCycle(ctx)
		if once {
			return err
		}

		wait := a.cfg.Interval
		if err != nil {
			slog.Error("arena: cycle failed", "err", err, "backoff", a.cfg.ErrorBackoff)
			wait = a.cfg.ErrorBackoff
		} else if report.Markets == 0 {
			wait = a.cfg.NoMarketWait
		}

		select {
		case <-ctx.Done():
			slog.Info("arena: stopped")
			return nil
		case <-time.After(wait):
		}
	}
}
