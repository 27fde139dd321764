// Package sentiment is the background news sentiment feed. Headlines are
// polled on a cron schedule, scored by keyword and aggregated per symbol
// over a rolling window.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/polyarena/internal/adapters/httpapi"
	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	DefaultURL      = "https://cryptopanic.com"
	DefaultSchedule = "@every 60s"

	postsPath     = "/api/free/v1/posts/"
	maxPosts      = 500
	maxHistory    = 60
	postsPerPoll  = 20
	defaultWindow = 5 * time.Minute
)

// Config del feed de sentimiento.
type Config struct {
	BaseURL   string
	AuthToken string
	Schedule  string        // cron spec, seconds field enabled
	Window    time.Duration // posts más viejos no cuentan
}

type post struct {
	score      float64
	influencer bool
	at         time.Time
}

// Feed implementa ports.SentimentSource.
type Feed struct {
	cfg  Config
	api  *httpapi.Client
	cron *cron.Cron
	now  func() time.Time

	mu      sync.RWMutex
	posts   map[string][]post
	history map[string][]float64
	latest  map[string]domain.SentimentSnapshot
}

// NewFeed crea un Feed con los defaults para los campos vacíos.
func NewFeed(cfg Config, opts ...httpapi.Option) *Feed {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = "free"
	}
	return &Feed{
		cfg:     cfg,
		api:     httpapi.New(cfg.BaseURL, 1, 1, opts...),
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
		posts:   make(map[string][]post),
		history: make(map[string][]float64),
		latest:  make(map[string]domain.SentimentSnapshot),
	}
}

// Start registers the poll job and runs a first poll in the background.
func (f *Feed) Start(ctx context.Context) error {
	job := func() {
		if err := f.Poll(ctx); err != nil {
			slog.Warn("sentiment: poll failed", "err", err)
		}
	}
	if _, err := f.cron.AddFunc(f.cfg.Schedule, job); err != nil {
		return fmt.Errorf("sentiment.Start: schedule %q: %w", f.cfg.Schedule, domain.ErrConfiguration)
	}
	f.cron.Start()
	go job()
	slog.Info("sentiment: feed started", "schedule", f.cfg.Schedule, "window", f.cfg.Window)
	return nil
}

// Stop waits for a running poll to finish.
func (f *Feed) Stop() {
	<-f.cron.Stop().Done()
}

type postsResponse struct {
	Results []struct {
		Title  string `json:"title"`
		Source struct {
			Title string `json:"title"`
		} `json:"source"`
	} `json:"results"`
}

// Poll fetches the latest headlines once and refreshes every symbol.
func (f *Feed) Poll(ctx context.Context) error {
	q := url.Values{
		"auth_token": {f.cfg.AuthToken},
		"currencies": {"BTC,SOL"},
		"kind":       {"news"},
	}
	var resp postsResponse
	if err := f.api.Get(ctx, postsPath, q, &resp); err != nil {
		return fmt.Errorf("sentiment.Poll: %w", err)
	}

	now := f.now()
	fresh := make(map[string][]post)
	for i, r := range resp.Results {
		if i >= postsPerPoll {
			break
		}
		sym := symbolOf(r.Title)
		if sym == "" {
			continue
		}
		score, inf := Score(r.Title, r.Source.Title)
		fresh[sym] = append(fresh[sym], post{score: score, influencer: inf, at: now})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for sym, ps := range fresh {
		all := append(f.posts[sym], ps...)
		if len(all) > maxPosts {
			all = all[len(all)-maxPosts:]
		}
		f.posts[sym] = all
	}
	for sym := range f.posts {
		f.refresh(sym, now)
	}
	return nil
}

// refresh recomputes the snapshot of sym. Caller holds mu.
func (f *Feed) refresh(sym string, now time.Time) {
	var scores, infScores []float64
	for _, p := range f.posts[sym] {
		if now.Sub(p.at) >= f.cfg.Window {
			continue
		}
		scores = append(scores, p.score)
		if p.influencer {
			infScores = append(infScores, p.score)
		}
	}
	if len(scores) == 0 {
		delete(f.latest, sym)
		return
	}

	avg := stat.Mean(scores, nil)
	inf := 0.5
	if len(infScores) > 0 {
		inf = stat.Mean(infScores, nil)
	}
	var momentum float64
	if prev := f.history[sym]; len(prev) > 0 {
		momentum = avg - stat.Mean(prev, nil)
	}

	h := append(f.history[sym], avg)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	f.history[sym] = h

	f.latest[sym] = domain.SentimentSnapshot{
		Score:           avg,
		Momentum:        momentum,
		PostCount:       len(scores),
		InfluencerScore: inf,
		UpdatedAt:       now,
	}
}

// SentimentSignals returns the last snapshot of symbol. ok is false when no
// post inside the window has been seen.
func (f *Feed) SentimentSignals(symbol string) (domain.SentimentSnapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snap, ok := f.latest[symbol]
	if !ok || f.now().Sub(snap.UpdatedAt) >= f.cfg.Window {
		return domain.SentimentSnapshot{}, false
	}
	return snap, true
}
