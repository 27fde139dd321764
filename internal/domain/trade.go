package domain

import "time"

// Mode selects paper or live settlement.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Outcome of a resolved trade.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
)

// Trade is a persisted arena trade. It is written once at execution and
// updated exactly once at resolution.
type Trade struct {
	ID             string
	BotName        string
	MarketID       string
	MarketQuestion string
	Side           Side
	Amount         float64
	Venue          string
	Mode           Mode
	Confidence     float64
	Reasoning      string
	Features       string
	ExternalID     string // settlement trade id (paper) or CLOB order id (live)
	SharesBought   float64
	Outcome        Outcome
	PnL            float64
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// Settle devuelve outcome y pnl del trade dado el resultado del mercado.
func (t Trade) Settle(marketOutcome bool) (Outcome, float64) {
	if t.Side.Wins(marketOutcome) {
		return OutcomeWin, t.Amount
	}
	return OutcomeLoss, -t.Amount
}

// PaperOrderRequest is a simulated trade for the paper settlement API. Bot
// and Reasoning travel with the order so the venue can attribute it.
type PaperOrderRequest struct {
	MarketID  string
	Side      Side
	Amount    float64 // USDC
	Bot       string
	Reasoning string
}

// PaperFill is the response of the paper settlement API.
type PaperFill struct {
	TradeID      string
	SharesBought float64
}

// LiveOrderRequest is a live order ready to be signed and sent.
type LiveOrderRequest struct {
	TokenID string
	Side    Side
	Amount  float64 // USDC
	Price   float64 // 0 = cross at best ask
	Resting bool    // GTC limit at Price instead of a crossing order
}

// LiveFill is the confirmation of a live order.
type LiveFill struct {
	OrderID string
	Price   float64
	Size    float64
	Status  string
}

// ExecutionResult is what the router reports for every attempt.
type ExecutionResult struct {
	Success bool
	TradeID string
	Reason  RejectReason
	Detail  string
}
