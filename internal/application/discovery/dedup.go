package discovery

// pair identifica un intento (bot, mercado).
type pair struct {
	bot    string
	market string
}

// Epoch is the set of (bot, market) pairs already attempted since the last
// evolution cycle. Only the control loop touches it.
type Epoch struct {
	seen map[pair]struct{}
}

// NewEpoch crea un epoch vacío.
func NewEpoch() *Epoch {
	return &Epoch{seen: make(map[pair]struct{})}
}

// Seen reports whether bot already attempted market in this epoch.
func (e *Epoch) Seen(bot, market string) bool {
	_, ok := e.seen[pair{bot, market}]
	return ok
}

// Mark records an attempt, whatever its result.
func (e *Epoch) Mark(bot, market string) {
	e.seen[pair{bot, market}] = struct{}{}
}

// Clear starts a new epoch.
func (e *Epoch) Clear() {
	e.seen = make(map[pair]struct{})
}

// Len devuelve el número de pares registrados.
func (e *Epoch) Len() int {
	return len(e.seen)
}
