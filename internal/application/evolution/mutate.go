package evolution

import (
	"math"
	"math/rand"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	minMutations = 2
	maxMutations = 3
	floatFloor   = 0.01
	intFloor     = 1
	floatScale   = 1e4 // floats viven en una rejilla de 4 decimales

	// tolerancia al pasar los bordes de la banda a unidades de rejilla
	gridEps = 1e-6
)

// Mutator perturbs numeric params. The rng is injected so cycles can be
// replayed in tests.
type Mutator struct {
	rate float64
	rng  *rand.Rand
}

// NewMutator crea un Mutator con tasa ±rate.
func NewMutator(rate float64, rng *rand.Rand) *Mutator {
	return &Mutator{rate: rate, rng: rng}
}

// band is the set of values a key may take: every u/scale with u in
// [lo, hi], excluding the current value.
type band struct {
	scale   float64
	lo, hi  int64
	orig    int64
	hasOrig bool
}

func (b band) size() int64 {
	n := b.hi - b.lo + 1
	if b.hasOrig {
		n--
	}
	return n
}

// pick returns the i-th value of the band, skipping the current one.
func (b band) pick(i int64) float64 {
	u := b.lo + i
	if b.hasOrig && u >= b.orig {
		u++
	}
	return float64(u) / b.scale
}

// bandFor computes the allowed values for p: within ±rate of p.Num, on the
// kind's grid and above the kind's floor. ok is false when no value other
// than p.Num fits.
func (m *Mutator) bandFor(p domain.Param) (band, bool) {
	scale, floor := floatScale, floatFloor
	if p.Kind == domain.ParamInt {
		scale, floor = 1, intFloor
	}
	lo := int64(math.Ceil(p.Num*(1-m.rate)*scale - gridEps))
	hi := int64(math.Floor(p.Num*(1+m.rate)*scale + gridEps))
	if f := int64(math.Round(floor * scale)); lo < f {
		lo = f
	}
	b := band{scale: scale, lo: lo, hi: hi}
	if u := math.Round(p.Num * scale); math.Abs(u-p.Num*scale) < gridEps && int64(u) >= lo && int64(u) <= hi {
		b.orig, b.hasOrig = int64(u), true
	}
	return b, hi >= lo && b.size() > 0
}

// Mutate returns a copy of params with 2 or 3 numeric keys (fewer if the set
// has fewer eligible keys) moved to a different value within ±rate, plus the
// keys touched. A key is eligible only if its band, after the floors (ints 1,
// floats 0.01 on a 4-decimal grid), holds a value other than the current one.
// Labels are never touched.
func (m *Mutator) Mutate(params domain.Params) (domain.Params, []string) {
	out := params.Clone()

	var keys []string
	bands := make(map[string]band)
	for _, k := range out.NumericKeys() {
		if b, ok := m.bandFor(out[k]); ok {
			keys = append(keys, k)
			bands[k] = b
		}
	}

	n := minMutations + m.rng.Intn(maxMutations-minMutations+1)
	if n > len(keys) {
		n = len(keys)
	}

	touched := make([]string, 0, n)
	for _, idx := range m.rng.Perm(len(keys))[:n] {
		k := keys[idx]
		b := bands[k]
		p := out[k]
		p.Num = b.pick(m.rng.Int63n(b.size()))
		out[k] = p
		touched = append(touched, k)
	}
	return out, touched
}
