package domain

import "time"

// Market representa un mercado binario del arena (YES/NO).
type Market struct {
	ID            string
	Question      string
	CurrentPrice  float64        // precio YES en [0,1]
	TimeRemaining *time.Duration // nil si la API no lo informa
	YesTokenID    string         // instrumento CLOB del lado YES (solo live)
	NoTokenID     string         // instrumento CLOB del lado NO (solo live)
	Outcome       *bool          // nil = sin resolver; true = YES ganó
}

// Resolved devuelve true si el mercado ya tiene resultado.
func (m Market) Resolved() bool {
	return m.Outcome != nil
}

// TokenFor devuelve el token ID del lado pedido. Vacío si no se conoce.
func (m Market) TokenFor(side Side) string {
	if side == SideYes {
		return m.YesTokenID
	}
	return m.NoTokenID
}

// SecondsRemaining devuelve los segundos hasta la resolución y si el dato existe.
func (m Market) SecondsRemaining() (float64, bool) {
	if m.TimeRemaining == nil {
		return 0, false
	}
	return m.TimeRemaining.Seconds(), true
}
