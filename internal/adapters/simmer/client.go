// Package simmer adapts the Simmer SDK API: market listings, paper trades
// and per-market context.
package simmer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarena/internal/adapters/httpapi"
	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	DefaultBase = "https://api.simmer.markets"

	marketsPath = "/api/sdk/markets"
	tradePath   = "/api/sdk/trade"
	contextPath = "/api/sdk/context/"

	activeLimit   = 100
	resolvedLimit = 200
	ratePerSec    = 5
)

// Client implementa ports.MarketProvider, ports.PaperSettlement y
// ports.OrderflowSource.
type Client struct {
	api   *httpapi.Client
	venue string
}

// NewClient crea un Client. venue is sent with every paper trade.
func NewClient(base, apiKey, venue string, opts ...httpapi.Option) *Client {
	if base == "" {
		base = DefaultBase
	}
	opts = append([]httpapi.Option{httpapi.WithBearer(apiKey)}, opts...)
	return &Client{
		api:   httpapi.New(base, ratePerSec, 5, opts...),
		venue: venue,
	}
}

// ActiveMarkets devuelve los mercados abiertos.
func (c *Client) ActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	return c.markets(ctx, "active", activeLimit)
}

// ResolvedMarkets devuelve los mercados resueltos recientes.
func (c *Client) ResolvedMarkets(ctx context.Context) ([]domain.Market, error) {
	return c.markets(ctx, "resolved", resolvedLimit)
}

func (c *Client) markets(ctx context.Context, status string, limit int) ([]domain.Market, error) {
	q := url.Values{"status": {status}, "limit": {strconv.Itoa(limit)}}
	var raw marketList
	if err := c.api.Get(ctx, marketsPath, q, &raw); err != nil {
		return nil, fmt.Errorf("simmer.markets %s: %w", status, err)
	}
	out := make([]domain.Market, 0, len(raw))
	for _, m := range raw {
		if dm, ok := mapMarket(m); ok {
			out = append(out, dm)
		}
	}
	return out, nil
}

// SubmitPaper places a simulated trade tagged "arena:<bot>" with the bot's
// reasoning. Each call carries a fresh client_request_id, used as the trade id
// when the venue does not return one. The POST is never retried on 5xx.
func (c *Client) SubmitPaper(ctx context.Context, req domain.PaperOrderRequest) (domain.PaperFill, error) {
	body := tradeRequest{
		MarketID:  req.MarketID,
		Side:      string(req.Side),
		Amount:    req.Amount,
		Venue:     c.venue,
		Source:    source(req.Bot),
		Reasoning: req.Reasoning,
		RequestID: uuid.NewString(),
	}
	var resp tradeResponse
	if err := c.api.Post(ctx, tradePath, body, &resp); err != nil {
		return domain.PaperFill{}, fmt.Errorf("simmer.SubmitPaper %s: %w", req.MarketID, err)
	}
	if resp.TradeID == "" {
		resp.TradeID = body.RequestID
	}
	return domain.PaperFill{TradeID: resp.TradeID, SharesBought: resp.SharesBought}, nil
}

func source(bot string) string {
	if bot == "" {
		return "arena"
	}
	return "arena:" + bot
}

// OrderflowSignals fetches the market context. Failures return ok=false;
// strategies treat missing order flow as neutral.
func (c *Client) OrderflowSignals(ctx context.Context, marketID string) (domain.OrderflowSnapshot, bool) {
	if marketID == "" {
		return domain.OrderflowSnapshot{}, false
	}
	var resp contextResponse
	if err := c.api.Get(ctx, contextPath+url.PathEscape(marketID), nil, &resp); err != nil {
		return domain.OrderflowSnapshot{}, false
	}
	snap := domain.OrderflowSnapshot{
		CurrentProbability: 0.5,
		Volume24h:          resp.Volume24h,
		Warnings:           resp.Warnings,
	}
	if resp.CurrentProbability != nil {
		snap.CurrentProbability = *resp.CurrentProbability
	}
	if resp.TimeToResolution != nil {
		d := seconds(*resp.TimeToResolution)
		snap.TimeToResolution = &d
	}
	return snap, true
}

// mapMarket convierte el DTO a domain.Market. Markets without an id are dropped.
func mapMarket(m simmerMarket) (domain.Market, bool) {
	id := m.ID
	if id == "" {
		id = m.MarketID
	}
	if id == "" {
		return domain.Market{}, false
	}
	out := domain.Market{
		ID:           id,
		Question:     m.Question,
		CurrentPrice: 0.5,
		YesTokenID:   m.PolymarketTokenID,
		NoTokenID:    m.PolymarketNoTokenID,
		Outcome:      m.Outcome,
	}
	if m.CurrentPrice != nil {
		out.CurrentPrice = domain.Clamp(*m.CurrentPrice, 0, 1)
	}
	if m.TimeToResolution != nil {
		d := seconds(*m.TimeToResolution)
		out.TimeRemaining = &d
	}
	return out, true
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
