package domain

// OrderBook es el libro de un token del CLOB. Bids van de mayor a menor
// precio y asks de menor a mayor.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry
	Asks    []BookEntry
}

// BookEntry es un nivel de precio.
type BookEntry struct {
	Price float64
	Size  float64 // shares
}

// BestBid devuelve el bid más alto, 0 si no hay bids.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el ask más bajo, 0 si no hay asks. Es el precio al que
// cruza una orden live sin quote.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Spread devuelve ask − bid, 0 si falta un lado.
func (ob OrderBook) Spread() float64 {
	bid, ask := ob.BestBid(), ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// AskDepthUSDC es el USDC disponible en asks con precio <= limit.
func (ob OrderBook) AskDepthUSDC(limit float64) float64 {
	var usdc float64
	for _, lvl := range ob.Asks {
		if lvl.Price > limit {
			break
		}
		usdc += lvl.Price * lvl.Size
	}
	return usdc
}
