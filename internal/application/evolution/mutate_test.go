package evolution_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/alejandrodnm/polyarena/internal/application/evolution"
	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutate_TouchesTwoOrThreeWithinRate(t *testing.T) {
	const rate = 0.2
	base := domain.Params{
		"lookback":  domain.I(14),
		"threshold": domain.F(0.002),
		"weight":    domain.F(0.7),
		"z":         domain.F(2.0),
		"mode":      domain.L("aggressive"),
	}

	for seed := int64(0); seed < 200; seed++ {
		m := evolution.NewMutator(rate, rand.New(rand.NewSource(seed)))
		out, touched := m.Mutate(base)

		require.GreaterOrEqual(t, len(touched), 2, "seed %d", seed)
		require.LessOrEqual(t, len(touched), 3, "seed %d", seed)
		assert.Equal(t, base["mode"], out["mode"])

		mutated := make(map[string]bool, len(touched))
		for _, k := range touched {
			mutated[k] = true
		}
		for k, p := range out {
			orig := base[k]
			assert.Equal(t, orig.Kind, p.Kind, "kind of %s", k)
			if !mutated[k] {
				assert.Equal(t, orig, p, "untouched %s", k)
				continue
			}
			assert.NotEqual(t, orig.Num, p.Num, "touched %s unchanged", k)
			lo, hi := orig.Num*(1-rate)-1e-9, orig.Num*(1+rate)+1e-9
			assert.True(t, p.Num >= lo && p.Num <= hi, "%s=%v outside [%v,%v]", k, p.Num, lo, hi)
			if p.Kind == domain.ParamInt {
				assert.GreaterOrEqual(t, p.Num, 1.0)
				assert.Equal(t, math.Trunc(p.Num), p.Num)
			} else {
				assert.GreaterOrEqual(t, p.Num, 0.01)
				assert.InDelta(t, math.Round(p.Num*1e4)/1e4, p.Num, 1e-12)
			}
		}
	}
}

func TestMutate_SkipsKeysWithoutRoomInBand(t *testing.T) {
	const rate = 0.2
	// 3 ±20% only admits 3; 0.002 ±20% sits under the 0.01 floor.
	base := domain.Params{
		"lookback_candles":   domain.I(3),
		"momentum_threshold": domain.F(0.002),
		"entry_seconds":      domain.I(60),
		"min_momentum":       domain.F(0.05),
		"price_floor":        domain.F(0.55),
	}
	for seed := int64(0); seed < 500; seed++ {
		out, touched := evolution.NewMutator(rate, rand.New(rand.NewSource(seed))).Mutate(base)
		require.GreaterOrEqual(t, len(touched), 2, "seed %d", seed)
		assert.NotContains(t, touched, "lookback_candles", "seed %d", seed)
		assert.NotContains(t, touched, "momentum_threshold", "seed %d", seed)
		for _, k := range touched {
			orig := base[k].Num
			assert.NotEqual(t, orig, out[k].Num, "seed %d key %s", seed, k)
			assert.InEpsilon(t, orig, out[k].Num, rate+1e-9, "seed %d key %s", seed, k)
		}
	}
}

func TestMutate_FloorClampsBand(t *testing.T) {
	// 0.011 ±50% → [0.0055, 0.0165], floor lifts the low edge to 0.01.
	base := domain.Params{"a": domain.F(0.011), "b": domain.I(2)}
	for seed := int64(0); seed < 200; seed++ {
		out, _ := evolution.NewMutator(0.5, rand.New(rand.NewSource(seed))).Mutate(base)
		assert.GreaterOrEqual(t, out["a"].Num, 0.01)
		assert.LessOrEqual(t, out["a"].Num, 0.0165+1e-12)
		assert.GreaterOrEqual(t, out["b"].Num, 1.0)
		assert.LessOrEqual(t, out["b"].Num, 3.0)
	}
}

func TestMutate_DoesNotAliasInput(t *testing.T) {
	base := domain.Params{"a": domain.F(1), "b": domain.F(2), "c": domain.I(3)}
	m := evolution.NewMutator(0.5, rand.New(rand.NewSource(7)))
	m.Mutate(base)
	assert.Equal(t, domain.Params{"a": domain.F(1), "b": domain.F(2), "c": domain.I(3)}, base)
}

func TestMutate_FewNumericKeys(t *testing.T) {
	base := domain.Params{"only": domain.F(0.5), "label": domain.L("x")}
	m := evolution.NewMutator(0.2, rand.New(rand.NewSource(1)))
	_, touched := m.Mutate(base)
	assert.Equal(t, []string{"only"}, touched)
}

func TestMutate_Deterministic(t *testing.T) {
	base := domain.Params{"a": domain.F(1), "b": domain.F(2), "c": domain.I(30), "d": domain.F(0.4)}
	out1, k1 := evolution.NewMutator(0.2, rand.New(rand.NewSource(42))).Mutate(base)
	out2, k2 := evolution.NewMutator(0.2, rand.New(rand.NewSource(42))).Mutate(base)
	assert.Equal(t, k1, k2)
	assert.Equal(t, out1, out2)
}
