package strategy

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// Strategy families known to the arena.
const (
	TypeMomentum        = "momentum"
	TypeMeanReversion   = "mean_reversion"
	TypeSentiment       = "sentiment"
	TypeHybrid          = "hybrid"
	TypeFeeZoneMaker    = "fee_zone_maker"
	TypeLateWindowMaker = "late_window_maker"
	TypeMeanRevSL       = "mean_reversion_sl"
	TypeMeanRevTP       = "mean_reversion_tp"
)

// Capabilities describe how the execution router must place a strategy's orders.
type Capabilities struct {
	// RestingOrders means the strategy quotes passively: live orders are posted
	// as GTC limits at the intent's quote instead of crossing the spread.
	RestingOrders bool
}

// Strategy define el contrato de análisis de un bot.
// Analyze es pura: sin efectos laterales, y devuelve hold (nunca panic ni
// error) cuando los datos no alcanzan.
type Strategy interface {
	Type() string
	Analyze(market domain.Market, signals domain.Signals) domain.TradeIntent
	Capabilities() Capabilities
}

// Factory builds a strategy from a bot's params.
type Factory func(params domain.Params, maxPosition float64) Strategy

// Family is a registered strategy type with its default parameters.
type Family struct {
	Type     string
	Defaults func() domain.Params
	New      Factory
}

// Registry mantiene las familias disponibles indexadas por tipo.
type Registry map[string]Family

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// DefaultRegistry devuelve el registry con todas las familias del arena.
func DefaultRegistry() Registry {
	r := NewRegistry()
	r.Register(Family{Type: TypeMomentum, Defaults: MomentumDefaults, New: NewMomentum})
	r.Register(Family{Type: TypeMeanReversion, Defaults: MeanReversionDefaults, New: NewMeanReversion})
	r.Register(Family{Type: TypeSentiment, Defaults: SentimentDefaults, New: NewSentiment})
	r.Register(Family{Type: TypeHybrid, Defaults: HybridDefaults, New: NewHybrid})
	r.Register(Family{Type: TypeFeeZoneMaker, Defaults: FeeZoneDefaults, New: NewFeeZoneMaker})
	r.Register(Family{Type: TypeLateWindowMaker, Defaults: LateWindowDefaults, New: NewLateWindowMaker})
	r.Register(Family{Type: TypeMeanRevSL, Defaults: MeanReversionDefaults, New: NewMeanRevStopLoss})
	r.Register(Family{Type: TypeMeanRevTP, Defaults: MeanReversionDefaults, New: NewMeanRevTakeProfit})
	return r
}

// Register añade una familia al registry.
func (r Registry) Register(f Family) {
	r[f.Type] = f
}

// Get devuelve la familia por tipo.
func (r Registry) Get(typ string) (Family, bool) {
	f, ok := r[typ]
	return f, ok
}

// Types devuelve los tipos registrados ordenados.
func (r Registry) Types() []string {
	out := make([]string, 0, len(r))
	for t := range r {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Build instancia la estrategia de un bot. Los params que falten se
// completan con los defaults de la familia.
func (r Registry) Build(b domain.Bot, maxPosition float64) (Strategy, error) {
	f, ok := r.Get(b.StrategyType)
	if !ok {
		return nil, fmt.Errorf("strategy.Build: unknown type %q for bot %s: %w", b.StrategyType, b.Name, domain.ErrConfiguration)
	}
	params := f.Defaults()
	for k, v := range b.Params {
		params[k] = v
	}
	return f.New(params, maxPosition), nil
}

// Compatible returns a parameter set for family typ seeded from parent:
// typ's defaults, overlaid with every parent value whose key and kind match.
func (r Registry) Compatible(typ string, parent domain.Params) (domain.Params, error) {
	f, ok := r.Get(typ)
	if !ok {
		return nil, fmt.Errorf("strategy.Compatible: unknown type %q: %w", typ, domain.ErrConfiguration)
	}
	out := f.Defaults()
	for k, def := range out {
		if pv, ok := parent[k]; ok && pv.Kind == def.Kind {
			out[k] = pv
		}
	}
	return out, nil
}

// priceUnavailable holds when the price feed is stale. Every family that
// reads price checks it before analyzing.
func priceUnavailable(p domain.PriceSnapshot) (domain.TradeIntent, bool) {
	if !p.Stale {
		return domain.TradeIntent{}, false
	}
	if p.UpdatedAt.IsZero() {
		return hold("price feed unavailable"), true
	}
	return hold("price feed stale since %s", p.UpdatedAt.UTC().Format("15:04:05")), true
}

// hold is the common non-actionable result.
func hold(format string, args ...any) domain.TradeIntent {
	return domain.Hold(fmt.Sprintf(format, args...))
}

// buy builds an actionable intent with the family's position sizing.
func buy(side domain.Side, confidence, amount float64, reasoning string) domain.TradeIntent {
	return domain.TradeIntent{
		Action:          domain.ActionBuy,
		Side:            side,
		Confidence:      domain.Clamp(confidence, 0, 1),
		SuggestedAmount: amount,
		Reasoning:       reasoning,
	}
}
