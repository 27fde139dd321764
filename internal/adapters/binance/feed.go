// Package binance is the background spot price feed: 1m klines from the
// Binance websocket, kept as a bounded history of closed candles per symbol.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	DefaultURL = "wss://stream.binance.com:9443/ws"

	defaultMaxCandles = 100
	staleAfter        = 60 * time.Second
	readTimeout       = 30 * time.Second
	reconnectWait     = 5 * time.Second
)

// DefaultSymbols maps arena symbols to Binance pairs.
var DefaultSymbols = map[string]string{"btc": "btcusdt", "sol": "solusdt"}

// series is the rolling state of one symbol.
type series struct {
	prices  []float64
	volumes []float64
	latest  float64
	updated time.Time
}

// Feed implementa ports.PriceSource.
type Feed struct {
	url        string
	symbols    map[string]string // arena name → binance pair
	byPair     map[string]string // binance pair → arena name
	maxCandles int
	now        func() time.Time

	mu   sync.RWMutex
	data map[string]*series

	cancel context.CancelFunc
	done   chan struct{}

	connMu sync.Mutex
	conn   *websocket.Conn
}

// NewFeed crea un Feed. Empty url or symbols fall back to the defaults.
func NewFeed(url string, symbols map[string]string, maxCandles int) *Feed {
	if url == "" {
		url = DefaultURL
	}
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	if maxCandles <= 0 {
		maxCandles = defaultMaxCandles
	}
	f := &Feed{
		url:        strings.TrimRight(url, "/"),
		symbols:    make(map[string]string, len(symbols)),
		byPair:     make(map[string]string, len(symbols)),
		maxCandles: maxCandles,
		now:        time.Now,
		data:       make(map[string]*series, len(symbols)),
	}
	for name, pair := range symbols {
		name = strings.ToLower(name)
		pair = strings.ToLower(pair)
		f.symbols[name] = pair
		f.byPair[pair] = name
		f.data[name] = &series{}
	}
	return f
}

// Start launches the connection loop. It returns immediately.
func (f *Feed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	go f.run(ctx)
	slog.Info("binance: price feed started", "symbols", len(f.symbols))
}

// Stop closes the connection and waits for the loop to exit.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.connMu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.connMu.Unlock()
	<-f.done
}

// PriceSignals returns a copy of the state of symbol. Unknown symbols and
// feeds without updates in the last minute are reported as stale.
func (f *Feed) PriceSignals(symbol string) domain.PriceSnapshot {
	name := strings.ToLower(symbol)
	snap := domain.PriceSnapshot{Symbol: name, Stale: true}

	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.data[name]
	if !ok {
		return snap
	}
	snap.Prices = append([]float64(nil), s.prices...)
	snap.Volumes = append([]float64(nil), s.volumes...)
	snap.Latest = s.latest
	snap.UpdatedAt = s.updated
	snap.Stale = s.updated.IsZero() || f.now().Sub(s.updated) > staleAfter
	return snap
}

func (f *Feed) streamURL() string {
	streams := make([]string, 0, len(f.symbols))
	for _, pair := range f.symbols {
		streams = append(streams, pair+"@kline_1m")
	}
	return f.url + "/" + strings.Join(streams, "/")
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)
	url := f.streamURL()

	for {
		if ctx.Err() != nil {
			return
		}

		dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			slog.Warn("binance: dial failed", "err", err)
			if !sleep(ctx, reconnectWait) {
				return
			}
			continue
		}

		f.connMu.Lock()
		f.conn = conn
		f.connMu.Unlock()
		slog.Info("binance: connected", "url", url)

		if err := f.readLoop(ctx, conn); err != nil && ctx.Err() == nil {
			slog.Warn("binance: read loop exited", "err", err)
		}

		f.connMu.Lock()
		if f.conn == conn {
			f.conn = nil
		}
		_ = conn.Close()
		f.connMu.Unlock()

		if !sleep(ctx, time.Second) {
			return
		}
	}
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := f.handle(msg); err != nil {
			slog.Debug("binance: bad message", "err", err)
		}
	}
}

type klineEvent struct {
	EventType string `json:"e"`
	K         struct {
		Symbol   string `json:"s"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		IsClosed bool   `json:"x"`
	} `json:"k"`
}

// handle applies one kline message. Combined-stream envelopes are unwrapped.
func (f *Feed) handle(msg []byte) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err == nil && len(env.Data) > 0 {
		msg = env.Data
	}

	var ev klineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if ev.EventType != "kline" {
		return nil
	}
	name, ok := f.byPair[strings.ToLower(ev.K.Symbol)]
	if !ok {
		return nil
	}
	closePrice, err := strconv.ParseFloat(ev.K.Close, 64)
	if err != nil {
		return fmt.Errorf("close %q: %w", ev.K.Close, err)
	}
	volume, _ := strconv.ParseFloat(ev.K.Volume, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.data[name]
	s.latest = closePrice
	s.updated = f.now()
	if ev.K.IsClosed {
		s.prices = appendBounded(s.prices, closePrice, f.maxCandles)
		s.volumes = appendBounded(s.volumes, volume, f.maxCandles)
	}
	return nil
}

func appendBounded(xs []float64, v float64, max int) []float64 {
	xs = append(xs, v)
	if len(xs) > max {
		xs = append(xs[:0:0], xs[len(xs)-max:]...)
	}
	return xs
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
