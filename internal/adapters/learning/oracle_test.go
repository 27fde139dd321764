package learning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarena/internal/adapters/learning"
	"github.com/alejandrodnm/polyarena/internal/domain"
)

func openMem(t *testing.T) *learning.Oracle {
	t.Helper()
	o, err := learning.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestExtractFeatures(t *testing.T) {
	o := openMem(t)
	cases := []struct {
		in   domain.FeatureInput
		want string
	}{
		{domain.FeatureInput{MarketPrice: 0.63, Momentum: 0.01}, "p6_up"},
		{domain.FeatureInput{MarketPrice: 0.05, Momentum: -0.01}, "p0_down"},
		{domain.FeatureInput{MarketPrice: 1.0, Momentum: 0.0005}, "p9_flat"},
		{domain.FeatureInput{MarketPrice: -3}, "p0_flat"},
		{domain.FeatureInput{MarketPrice: 0.63, Momentum: 0.01, Volume24h: vol(25_000), TimeRemaining: left(30 * time.Second)}, "p6_up_vhi_tlate"},
		{domain.FeatureInput{MarketPrice: 0.63, Volume24h: vol(1_000)}, "p6_flat_vmid"},
		{domain.FeatureInput{MarketPrice: 0.63, Volume24h: vol(0)}, "p6_flat_vlo"},
		{domain.FeatureInput{MarketPrice: 0.63, TimeRemaining: left(2 * time.Minute)}, "p6_flat_tmid"},
		{domain.FeatureInput{MarketPrice: 0.63, TimeRemaining: left(4 * time.Minute)}, "p6_flat_tearly"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, o.ExtractFeatures(tc.in))
	}
}

func vol(v float64) *float64              { return &v }
func left(d time.Duration) *time.Duration { return &d }

func TestLearnedBias_PriorWithoutHistory(t *testing.T) {
	o := openMem(t)
	assert.Equal(t, 0.55, o.LearnedBias("momentum", "p5_up", 0.55))
}

func TestLearnedBias_MovesTowardsObservedFrequency(t *testing.T) {
	o := openMem(t)
	// YES bought and won four times.
	for i := 0; i < 4; i++ {
		require.NoError(t, o.RecordOutcome("a", "p5_up", domain.SideYes, true))
	}
	// (4 + 0.5·4) / (4 + 4)
	assert.InDelta(t, 0.75, o.LearnedBias("a", "p5_up", 0.5), 1e-9)

	// NO bought and won: YES lost.
	for i := 0; i < 8; i++ {
		require.NoError(t, o.RecordOutcome("a", "p5_up", domain.SideNo, true))
	}
	// (4 + 2) / (12 + 4)
	assert.InDelta(t, 0.375, o.LearnedBias("a", "p5_up", 0.5), 1e-9)

	n, err := o.Observations("a", "p5_up")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestRecordOutcome_IsolatedPerBotAndKey(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.RecordOutcome("a", "p5_up", domain.SideNo, false))

	assert.InDelta(t, 0.6, o.LearnedBias("a", "p5_up", 0.5), 1e-9)
	assert.Equal(t, 0.5, o.LearnedBias("b", "p5_up", 0.5))
	assert.Equal(t, 0.5, o.LearnedBias("a", "p5_down", 0.5))
}

func TestRecordOutcome_EmptyKey(t *testing.T) {
	o := openMem(t)
	assert.Error(t, o.RecordOutcome("a", "", domain.SideYes, true))
}
