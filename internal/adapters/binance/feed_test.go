package binance_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarena/internal/adapters/binance"
)

func kline(symbol string, close float64, closed bool) string {
	return fmt.Sprintf(`{"e":"kline","k":{"s":"%s","c":"%.2f","v":"12.5","x":%t}}`, strings.ToUpper(symbol), close, closed)
}

func wsServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "btcusdt@kline_1m")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeed_CollectsClosedCandles(t *testing.T) {
	srv := wsServer(t, []string{
		kline("btcusdt", 100, true),
		kline("btcusdt", 101, false),
		`{"stream":"btcusdt@kline_1m","data":` + kline("btcusdt", 102, true) + `}`,
		`not json`,
		kline("ethusdt", 5, true),
	})

	feed := binance.NewFeed("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", map[string]string{"btc": "btcusdt"}, 10)
	feed.Start(context.Background())
	defer feed.Stop()

	require.Eventually(t, func() bool {
		return len(feed.PriceSignals("btc").Prices) == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap := feed.PriceSignals("BTC")
	assert.Equal(t, []float64{100, 102}, snap.Prices)
	assert.Equal(t, []float64{12.5, 12.5}, snap.Volumes)
	assert.Equal(t, 102.0, snap.Latest)
	assert.False(t, snap.Stale)
	assert.InDelta(t, 0.02, snap.Momentum(), 1e-9)
}

func TestFeed_UnknownSymbolIsStale(t *testing.T) {
	feed := binance.NewFeed("", nil, 0)
	snap := feed.PriceSignals("doge")
	assert.True(t, snap.Stale)
	assert.True(t, snap.Empty())

	snap = feed.PriceSignals("btc")
	assert.True(t, snap.Stale, "no update received yet")
}

func TestFeed_HistoryIsBounded(t *testing.T) {
	msgs := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		msgs = append(msgs, kline("btcusdt", float64(100+i), true))
	}
	srv := wsServer(t, msgs)

	feed := binance.NewFeed("ws"+strings.TrimPrefix(srv.URL, "http"), map[string]string{"btc": "btcusdt"}, 3)
	feed.Start(context.Background())
	defer feed.Stop()

	require.Eventually(t, func() bool {
		return feed.PriceSignals("btc").Latest == 107
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []float64{105, 106, 107}, feed.PriceSignals("btc").Prices)
}
