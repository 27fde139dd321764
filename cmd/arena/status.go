package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

type rosterView interface {
	Roster() []domain.Bot
}

// ledgerView es lo que /bots lee de storage: performance, últimos trades y
// el estado de pausa persistido por el risk gate.
type ledgerView interface {
	BotPerformance(ctx context.Context, bot string, mode domain.Mode, since time.Time) (domain.Performance, error)
	RecentTrades(ctx context.Context, bot string, limit int) ([]domain.Trade, error)
	PausedBots(ctx context.Context) (map[string]bool, error)
}

type observationsView interface {
	Observations(bot, featureKey string) (int, error)
}

const recentTradesShown = 5

type pinger interface {
	Ping(ctx context.Context) error
}

// botStatus es una fila de /bots.
type botStatus struct {
	Name         string             `json:"name"`
	StrategyType string             `json:"strategy_type"`
	Generation   int                `json:"generation"`
	Lineage      string             `json:"lineage,omitempty"`
	Paused       bool               `json:"paused"`
	Params       domain.Params      `json:"params"`
	Performance  domain.Performance `json:"performance"`
	WinRate      float64            `json:"win_rate"`
	RecentTrades []tradeStatus      `json:"recent_trades"`
}

// tradeStatus is one recent trade. Observations counts the resolved outcomes
// the oracle holds for the trade's feature bucket.
type tradeStatus struct {
	ID           string         `json:"id"`
	MarketID     string         `json:"market_id"`
	Side         domain.Side    `json:"side"`
	Amount       float64        `json:"amount"`
	Outcome      domain.Outcome `json:"outcome"`
	PnL          float64        `json:"pnl"`
	Features     string         `json:"features,omitempty"`
	Observations int            `json:"observations"`
	CreatedAt    time.Time      `json:"created_at"`
}

// statusRouter expone healthz, métricas Prometheus y el roster actual.
// window es la ventana de performance reportada en /bots. Paused comes from
// the risk state store, not from the roster snapshot.
func statusRouter(db pinger, roster rosterView, ledger ledgerView, learned observationsView, mode domain.Mode, window time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(req.Context()); err != nil {
			http.Error(w, "storage: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/bots", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		since := time.Now().Add(-window)
		paused, err := ledger.PausedBots(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		bots := roster.Roster()
		out := make([]botStatus, 0, len(bots))
		for _, b := range bots {
			p, err := ledger.BotPerformance(ctx, b.Name, mode, since)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			recent, err := recentTrades(ctx, ledger, learned, b.Name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, botStatus{
				Name:         b.Name,
				StrategyType: b.StrategyType,
				Generation:   b.Generation,
				Lineage:      b.Lineage,
				Paused:       paused[b.Name],
				Params:       b.Params,
				Performance:  p,
				WinRate:      p.WinRate(),
				RecentTrades: recent,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	return r
}

func recentTrades(ctx context.Context, ledger ledgerView, learned observationsView, bot string) ([]tradeStatus, error) {
	trades, err := ledger.RecentTrades(ctx, bot, recentTradesShown)
	if err != nil {
		return nil, err
	}
	out := make([]tradeStatus, 0, len(trades))
	for _, t := range trades {
		ts := tradeStatus{
			ID:        t.ID,
			MarketID:  t.MarketID,
			Side:      t.Side,
			Amount:    t.Amount,
			Outcome:   t.Outcome,
			PnL:       t.PnL,
			Features:  t.Features,
			CreatedAt: t.CreatedAt,
		}
		if t.Features != "" {
			n, err := learned.Observations(bot, t.Features)
			if err != nil {
				slog.Warn("status: observations lookup failed", "bot", bot, "features", t.Features, "err", err)
			}
			ts.Observations = n
		}
		out = append(out, ts)
	}
	return out, nil
}

// serveStatus arranca el servidor de status y lo cierra cuando ctx termina.
func serveStatus(ctx context.Context, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("status: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("status: server failed", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
