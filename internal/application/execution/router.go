package execution

// router.go — turns a blended intent into a settled, logged trade.
//
// Every call returns an ExecutionResult; errors and panics from settlement are
// converted into reason codes so one bot cannot stop the cycle for the others.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarena/internal/application/risk"
	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/metrics"
	"github.com/alejandrodnm/polyarena/internal/ports"
	"github.com/alejandrodnm/polyarena/internal/strategy"
)

// Gate approves or rejects a bot's next trade.
type Gate interface {
	Allow(ctx context.Context, bot string) error
}

// Config controla el routing de órdenes.
type Config struct {
	Mode        domain.Mode
	Venue       string
	MaxPosition float64
}

// Router dispatches to paper or live settlement and writes the ledger.
type Router struct {
	cfg    Config
	gate   Gate
	paper  ports.PaperSettlement
	live   ports.LiveSettlement
	ledger ports.TradeLedger
	now    func() time.Time
}

// NewRouter crea un Router. live may be nil in paper mode.
func NewRouter(cfg Config, gate Gate, paper ports.PaperSettlement, live ports.LiveSettlement, ledger ports.TradeLedger) *Router {
	return &Router{
		cfg:    cfg,
		gate:   gate,
		paper:  paper,
		live:   live,
		ledger: ledger,
		now:    time.Now,
	}
}

// Execute places intent for bot on market.
func (r *Router) Execute(ctx context.Context, bot string, caps strategy.Capabilities, market domain.Market, intent domain.TradeIntent) (res domain.ExecutionResult) {
	defer func() {
		if p := recover(); p != nil {
			res = r.reject(bot, market, domain.ReasonExecutionError, fmt.Sprintf("panic: %v", p))
		}
	}()

	if err := r.gate.Allow(ctx, bot); err != nil {
		reason := risk.ReasonOf(err)
		if reason == domain.ReasonNone {
			reason = domain.ReasonRiskCheckError
		}
		return r.reject(bot, market, reason, err.Error())
	}

	amount := math.Min(intent.SuggestedAmount, r.cfg.MaxPosition)
	if amount <= 0 || math.IsNaN(amount) {
		return r.reject(bot, market, domain.ReasonInvalidAmount, fmt.Sprintf("amount %.4f", amount))
	}

	trade := domain.Trade{
		ID:             uuid.NewString(),
		BotName:        bot,
		MarketID:       market.ID,
		MarketQuestion: market.Question,
		Side:           intent.Side,
		Amount:         amount,
		Venue:          r.cfg.Venue,
		Mode:           r.cfg.Mode,
		Confidence:     intent.Confidence,
		Reasoning:      intent.Reasoning,
		Features:       intent.Features,
		Outcome:        domain.OutcomePending,
		CreatedAt:      r.now().UTC(),
	}

	if r.cfg.Mode == domain.ModeLive {
		return r.executeLive(ctx, caps, market, intent, trade)
	}
	return r.executePaper(ctx, market, trade)
}

func (r *Router) executePaper(ctx context.Context, market domain.Market, trade domain.Trade) domain.ExecutionResult {
	fill, err := r.paper.SubmitPaper(ctx, domain.PaperOrderRequest{
		MarketID:  market.ID,
		Side:      trade.Side,
		Amount:    trade.Amount,
		Bot:       trade.BotName,
		Reasoning: trade.Reasoning,
	})
	if err != nil {
		return r.reject(trade.BotName, market, reasonFor(err), err.Error())
	}
	trade.ExternalID = fill.TradeID
	trade.SharesBought = fill.SharesBought
	return r.record(ctx, market, trade)
}

func (r *Router) executeLive(ctx context.Context, caps strategy.Capabilities, market domain.Market, intent domain.TradeIntent, trade domain.Trade) domain.ExecutionResult {
	if r.live == nil {
		return r.reject(trade.BotName, market, domain.ReasonExecutionError, "live settlement not configured")
	}
	token := market.TokenFor(trade.Side)
	if token == "" {
		return r.reject(trade.BotName, market, domain.ReasonMissingToken, fmt.Sprintf("no %s token", trade.Side))
	}

	req := domain.LiveOrderRequest{TokenID: token, Side: trade.Side, Amount: trade.Amount}
	if caps.RestingOrders && intent.Quote != nil && intent.Quote.Price > 0 {
		req.Resting = true
		req.Price = intent.Quote.Price
	}

	fill, err := r.live.SubmitLive(ctx, req)
	if err != nil {
		return r.reject(trade.BotName, market, reasonFor(err), err.Error())
	}
	trade.ExternalID = fill.OrderID
	trade.SharesBought = fill.Size
	return r.record(ctx, market, trade)
}

func (r *Router) record(ctx context.Context, market domain.Market, trade domain.Trade) domain.ExecutionResult {
	if err := r.ledger.LogTrade(ctx, trade); err != nil {
		// Settlement already accepted it; the external id is kept in the log.
		slog.Error("execution: trade placed but not logged",
			"bot", trade.BotName, "market", market.ID, "external_id", trade.ExternalID, "err", err)
		return r.reject(trade.BotName, market, domain.ReasonLedgerError, err.Error())
	}
	metrics.Trades.WithLabelValues(trade.BotName, string(trade.Mode)).Inc()
	slog.Info("execution: trade placed",
		"bot", trade.BotName,
		"market", market.ID,
		"side", trade.Side,
		"amount", fmt.Sprintf("%.2f", trade.Amount),
		"confidence", fmt.Sprintf("%.2f", trade.Confidence),
		"mode", trade.Mode,
		"external_id", trade.ExternalID,
	)
	return domain.ExecutionResult{Success: true, TradeID: trade.ID}
}

func (r *Router) reject(bot string, market domain.Market, reason domain.RejectReason, detail string) domain.ExecutionResult {
	metrics.Rejections.WithLabelValues(bot, string(reason)).Inc()
	slog.Info("execution: rejected", "bot", bot, "market", market.ID, "reason", reason, "detail", detail)
	return domain.ExecutionResult{Reason: reason, Detail: detail}
}

// reasonFor maps a settlement error to its reason code.
func reasonFor(err error) domain.RejectReason {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return domain.APIErrorReason(apiErr.Status)
	}
	if errors.Is(err, domain.ErrExecutionFailure) {
		return domain.ReasonSettlementError
	}
	return domain.ReasonExecutionError
}
