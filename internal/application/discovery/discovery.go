// Package discovery finds the markets the arena trades, tracks which
// (bot, market) pairs already traded, and settles pending trades.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/metrics"
	"github.com/alejandrodnm/polyarena/internal/ports"
)

// Config contiene los filtros de discovery.
type Config struct {
	// AssetKeywords: la pregunta debe contener alguna (case-insensitive).
	// Lista vacía desactiva el filtro.
	AssetKeywords []string
	// WindowMinutes es la duración exacta de ventana aceptada.
	WindowMinutes int
}

// DefaultConfig devuelve el filtro BTC de 5 minutos.
func DefaultConfig() Config {
	return Config{
		AssetKeywords: []string{"btc", "bitcoin"},
		WindowMinutes: 5,
	}
}

// Discoverer filtra los mercados activos del provider.
type Discoverer struct {
	cfg     Config
	markets ports.MarketProvider
}

// NewDiscoverer crea un Discoverer.
func NewDiscoverer(cfg Config, markets ports.MarketProvider) *Discoverer {
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = DefaultConfig().WindowMinutes
	}
	kw := make([]string, 0, len(cfg.AssetKeywords))
	for _, k := range cfg.AssetKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	cfg.AssetKeywords = kw
	return &Discoverer{cfg: cfg, markets: markets}
}

// Discover returns the active markets that pass the asset and window filters.
func (d *Discoverer) Discover(ctx context.Context) ([]domain.Market, error) {
	all, err := d.markets.ActiveMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery.Discover: active markets: %w", err)
	}

	asset := 0
	out := make([]domain.Market, 0, len(all))
	for _, m := range all {
		if !d.matchesAsset(m.Question) {
			continue
		}
		asset++
		if !IsWindow(m.Question, d.cfg.WindowMinutes) {
			continue
		}
		out = append(out, m)
	}

	metrics.EligibleMarkets.Set(float64(len(out)))
	slog.Debug("discovery: markets filtered",
		"active", len(all),
		"asset", asset,
		"eligible", len(out),
		"window_min", d.cfg.WindowMinutes,
	)
	return out, nil
}

func (d *Discoverer) matchesAsset(question string) bool {
	if len(d.cfg.AssetKeywords) == 0 {
		return true
	}
	q := strings.ToLower(question)
	for _, k := range d.cfg.AssetKeywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
