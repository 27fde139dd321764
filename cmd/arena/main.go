package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alejandrodnm/polyarena/config"
	"github.com/alejandrodnm/polyarena/internal/adapters/binance"
	"github.com/alejandrodnm/polyarena/internal/adapters/export"
	"github.com/alejandrodnm/polyarena/internal/adapters/learning"
	"github.com/alejandrodnm/polyarena/internal/adapters/notify"
	"github.com/alejandrodnm/polyarena/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyarena/internal/adapters/sentiment"
	"github.com/alejandrodnm/polyarena/internal/adapters/simmer"
	"github.com/alejandrodnm/polyarena/internal/adapters/storage"
	"github.com/alejandrodnm/polyarena/internal/application/arena"
	"github.com/alejandrodnm/polyarena/internal/application/decision"
	"github.com/alejandrodnm/polyarena/internal/application/discovery"
	"github.com/alejandrodnm/polyarena/internal/application/evolution"
	"github.com/alejandrodnm/polyarena/internal/application/execution"
	"github.com/alejandrodnm/polyarena/internal/application/risk"
	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/ports"
	"github.com/alejandrodnm/polyarena/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "", "execution mode: paper|live (overrides config)")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug and print every cycle")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	cancelAll := flag.Bool("cancel-all", false, "cancel every open CLOB order and exit (live only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *mode != "" {
		cfg.Arena.Mode = *mode
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid mode", "err", err)
			os.Exit(1)
		}
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	closeLog := setupLogger(cfg.Log)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *cancelAll {
		if err := runCancelAll(ctx, cfg); err != nil {
			slog.Error("cancel-all failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, *once, *verbose); err != nil {
		slog.Error("arena exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("arena stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, once, verbose bool) error {
	live := cfg.Mode() == domain.ModeLive
	if live {
		if err := cfg.RequireLive(); err != nil {
			return err
		}
		if !confirmLive(os.Stdin, os.Stdout) {
			return fmt.Errorf("live trading not confirmed: %w", domain.ErrConfiguration)
		}
	} else if err := cfg.RequirePaper(); err != nil {
		return err
	}

	slog.Info("arena starting",
		"mode", cfg.Mode(),
		"interval", cfg.Interval(),
		"evolution", cfg.EvolutionInterval(),
		"roster", cfg.Arena.Roster,
		"once", once,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	oracle, err := learning.Open(cfg.Storage.BadgerDir)
	if err != nil {
		return fmt.Errorf("open bias store %q: %w", cfg.Storage.BadgerDir, err)
	}
	defer oracle.Close()

	exporter, err := export.NewJSONExporter(cfg.Storage.ParamsDir)
	if err != nil {
		return err
	}
	console := notify.NewConsole(verbose)

	sim := simmer.NewClient(cfg.API.SimmerBase, cfg.API.SimmerAPIKey, cfg.Arena.Venue)

	prices := binance.NewFeed(cfg.Feeds.BinanceURL, binance.DefaultSymbols, cfg.Feeds.Candles)
	prices.Start(ctx)
	defer prices.Stop()

	news := sentiment.NewFeed(sentiment.Config{
		BaseURL:   cfg.Feeds.SentimentURL,
		AuthToken: cfg.Feeds.SentimentToken,
		Schedule:  cfg.Feeds.SentimentSchedule,
		Window:    cfg.SentimentWindow(),
	})
	if err := news.Start(ctx); err != nil {
		return err
	}
	defer news.Stop()

	gate := risk.NewGate(store, store, cfg.Mode(), risk.Limits{
		BotDailyLoss:   cfg.Risk.BotDailyLoss,
		TotalDailyLoss: cfg.Risk.TotalDailyLoss,
	})
	if err := gate.Restore(ctx); err != nil {
		return err
	}

	var liveSettlement ports.LiveSettlement
	if live {
		trading, err := newTradingClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer trading.Close()
		liveSettlement = trading
	}

	epoch := discovery.NewEpoch()
	registry := strategy.DefaultRegistry()

	scheduler := evolution.NewScheduler(evolution.Config{
		Interval:     cfg.EvolutionInterval(),
		Window:       cfg.PerformanceWindow(),
		Survivors:    cfg.Arena.Survivors,
		MutationRate: cfg.Arena.MutationRate,
		Mode:         cfg.Mode(),
	}, evolution.Deps{
		Registry: registry,
		Ledger:   store,
		Bots:     store,
		History:  store,
		Exporter: exporter,
		Notifier: console,
		Gate:     gate,
		Epoch:    epoch,
	}, rand.New(rand.NewSource(seed(cfg.Arena.Seed))))
	if err := scheduler.Restore(ctx); err != nil {
		return err
	}

	arenaCfg := arena.Config{
		Mode:             cfg.Mode(),
		Symbol:           cfg.Arena.Symbol,
		Interval:         cfg.Interval(),
		NoMarketWait:     cfg.NoMarketWait(),
		ErrorBackoff:     cfg.ErrorBackoff(),
		MaxPosition:      cfg.Risk.MaxPosition,
		OrderflowWorkers: cfg.Arena.OrderflowWorkers,
		Roster:           cfg.Arena.Roster,
	}
	a := arena.New(arenaCfg, arena.Deps{
		Registry: registry,
		Bots:     store,
		Discoverer: discovery.NewDiscoverer(discovery.Config{
			AssetKeywords: cfg.Arena.AssetKeywords,
			WindowMinutes: cfg.Arena.WindowMinutes,
		}, sim),
		Resolver:  discovery.NewResolver(sim, store, oracle, cfg.Mode()),
		Prices:    prices,
		Sentiment: news,
		Orderflow: sim,
		Decider:   decision.NewBlender(oracle, cfg.Risk.MaxPosition),
		Executor: execution.NewRouter(execution.Config{
			Mode:        cfg.Mode(),
			Venue:       cfg.Arena.Venue,
			MaxPosition: cfg.Risk.MaxPosition,
		}, gate, sim, liveSettlement, store),
		Evolution: scheduler,
		Epoch:     epoch,
		Reporter:  console,
	})
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Listen != "" {
		serveStatus(ctx, cfg.Metrics.Listen,
			statusRouter(store, a, store, oracle, cfg.Mode(), cfg.PerformanceWindow()))
	}

	return a.Run(ctx, once)
}

// newTradingClient deriva las credenciales L2 antes del primer ciclo para
// fallar rápido con una clave inválida.
func newTradingClient(ctx context.Context, cfg *config.Config) (*polymarket.TradingClient, error) {
	auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.PrivateKey)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureCreds(ctx); err != nil {
		return nil, err
	}
	slog.Info("live trading enabled", "wallet", auth.Address())
	return polymarket.NewTradingClient(auth, cfg.API.PolygonRPC)
}

func runCancelAll(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireLive(); err != nil {
		return err
	}
	trading, err := newTradingClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer trading.Close()
	if err := trading.CancelAll(ctx); err != nil {
		return err
	}
	slog.Info("all open orders cancelled")
	return nil
}

// confirmLive pide escribir YES antes de arriesgar fondos reales.
func confirmLive(in io.Reader, out io.Writer) bool {
	fmt.Fprintln(out, "LIVE MODE: real orders will be placed with real funds.")
	fmt.Fprint(out, "Type YES to continue: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "YES"
}

func seed(configured int64) int64 {
	if configured != 0 {
		return configured
	}
	return time.Now().UnixNano()
}

// setupLogger configura slog sobre stdout y, si hay archivo, lo duplica en un
// lumberjack con rotación. La función devuelta cierra el archivo.
func setupLogger(cfg config.LogConfig) func() {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	closer := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "log dir: %v\n", err)
		} else {
			rotating := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, rotating)
			closer = func() { _ = rotating.Close() }
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closer
}
