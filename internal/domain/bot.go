package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParamKind distinguishes mutable numeric params from categorical labels.
type ParamKind int

const (
	ParamFloat ParamKind = iota
	ParamInt
	ParamLabel
)

// Param is a single strategy parameter value.
type Param struct {
	Kind  ParamKind
	Num   float64
	Label string
}

// F, I and L build float, int and label params.
func F(v float64) Param { return Param{Kind: ParamFloat, Num: v} }
func I(v int) Param     { return Param{Kind: ParamInt, Num: float64(v)} }
func L(s string) Param  { return Param{Kind: ParamLabel, Label: s} }

// Numeric reports whether the param takes part in mutation.
func (p Param) Numeric() bool {
	return p.Kind == ParamFloat || p.Kind == ParamInt
}

// MarshalJSON writes floats with a decimal point so the kind survives a round trip.
func (p Param) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case ParamLabel:
		return json.Marshal(p.Label)
	case ParamInt:
		return []byte(strconv.FormatInt(int64(p.Num), 10)), nil
	default:
		s := strconv.FormatFloat(p.Num, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	}
}

// UnmarshalJSON infers the kind: strings are labels, numbers without a
// decimal point are ints, everything else is a float.
func (p *Param) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = L(s)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("param: invalid number %q: %w", raw, err)
	}
	if strings.ContainsAny(raw, ".eE") {
		*p = F(v)
	} else {
		*p = Param{Kind: ParamInt, Num: v}
	}
	return nil
}

// Params is the mutable parameter set of a bot.
type Params map[string]Param

// Float devuelve el valor numérico de name, o 0 si no existe.
func (ps Params) Float(name string) float64 {
	return ps[name].Num
}

// Int devuelve el valor entero de name, o 0 si no existe.
func (ps Params) Int(name string) int {
	return int(math.Round(ps[name].Num))
}

// Label devuelve el valor categórico de name.
func (ps Params) Label(name string) string {
	return ps[name].Label
}

// Clone devuelve una copia independiente.
func (ps Params) Clone() Params {
	out := make(Params, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// NumericKeys devuelve las claves numéricas ordenadas alfabéticamente.
func (ps Params) NumericKeys() []string {
	keys := make([]string, 0, len(ps))
	for k, v := range ps {
		if v.Numeric() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Bot es una instancia de estrategia parametrizada que compite en el arena.
type Bot struct {
	Name         string
	StrategyType string
	Params       Params
	Generation   int
	Lineage      string // cadena "padre→hijo"; vacía para bots de bootstrap
	Paused       bool
	Retired      bool
	CreatedAt    time.Time
}

// ChildLineage devuelve el linaje de un hijo de parent llamado child.
func ChildLineage(parent, child string) string {
	return parent + "→" + child
}
