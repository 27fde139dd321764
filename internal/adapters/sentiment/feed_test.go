package sentiment_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarena/internal/adapters/sentiment"
)

func TestScore(t *testing.T) {
	cases := []struct {
		text, author string
		score        float64
		influencer   bool
	}{
		{"Bitcoin rally sends BTC to new ATH", "", 1, false},
		{"Bitcoin crash: traders rekt", "", 0, false},
		{"Bitcoin pump then dump", "", 0.5, false},
		{"Bitcoin quiet weekend", "", 0.5, false},
		{"Solana breakout", "ElonMusk", 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			score, inf := sentiment.Score(tc.text, tc.author)
			assert.InDelta(t, tc.score, score, 1e-9)
			assert.Equal(t, tc.influencer, inf)
		})
	}
}

func newsServer(t *testing.T, pages ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/free/v1/posts/", r.URL.Path)
		assert.Equal(t, "news", r.URL.Query().Get("kind"))
		i := int(calls.Add(1)) - 1
		if i >= len(pages) {
			i = len(pages) - 1
		}
		fmt.Fprint(w, pages[i])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestPoll_AggregatesPerSymbol(t *testing.T) {
	srv, _ := newsServer(t, `{"results":[
		{"title":"Bitcoin rally continues","source":{"title":"coindesk"}},
		{"title":"BTC crash fears","source":{"title":"coindesk"}},
		{"title":"Solana surge","source":{"title":"elonmusk"}},
		{"title":"Ethereum upgrade ships","source":{"title":"coindesk"}}
	]}`)
	f := sentiment.NewFeed(sentiment.Config{BaseURL: srv.URL})

	_, ok := f.SentimentSignals("btc")
	assert.False(t, ok, "no data before the first poll")

	require.NoError(t, f.Poll(context.Background()))

	btc, ok := f.SentimentSignals("btc")
	require.True(t, ok)
	assert.Equal(t, 2, btc.PostCount)
	assert.InDelta(t, 0.5, btc.Score, 1e-9)
	assert.InDelta(t, 0.5, btc.InfluencerScore, 1e-9)
	assert.Zero(t, btc.Momentum)

	sol, ok := f.SentimentSignals("sol")
	require.True(t, ok)
	assert.Equal(t, 1, sol.PostCount)
	assert.InDelta(t, 1, sol.InfluencerScore, 1e-9)

	_, ok = f.SentimentSignals("eth")
	assert.False(t, ok)
}

func TestPoll_MomentumAgainstHistory(t *testing.T) {
	srv, calls := newsServer(t,
		`{"results":[{"title":"Bitcoin crash","source":{"title":"x"}}]}`,
		`{"results":[{"title":"Bitcoin rally","source":{"title":"x"}}]}`,
	)
	f := sentiment.NewFeed(sentiment.Config{BaseURL: srv.URL})
	ctx := context.Background()

	require.NoError(t, f.Poll(ctx))
	first, _ := f.SentimentSignals("btc")
	assert.InDelta(t, 0, first.Score, 1e-9)

	require.NoError(t, f.Poll(ctx))
	second, ok := f.SentimentSignals("btc")
	require.True(t, ok)
	assert.Equal(t, 2, second.PostCount)
	assert.InDelta(t, 0.5, second.Score, 1e-9)
	assert.InDelta(t, 0.5, second.Momentum, 1e-9)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPoll_ClientErrorKeepsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := sentiment.NewFeed(sentiment.Config{BaseURL: srv.URL})
	assert.Error(t, f.Poll(context.Background()))
	_, ok := f.SentimentSignals("btc")
	assert.False(t, ok)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	f := sentiment.NewFeed(sentiment.Config{Schedule: "every now and then"})
	assert.Error(t, f.Start(context.Background()))
}
