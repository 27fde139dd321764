package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/polyarena/internal/adapters/httpapi"
	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	DefaultCLOBBase = "https://clob.polymarket.com"

	// Rate limits al 60% de los límites reales documentados.
	// CLOB /book: 500/10s → 300/10s → 30/s
	booksRatePerSec = 30
	// CLOB general: 9000/10s → 5400/10s → 540/s
	generalRatePerSec = 540

	bookPath    = "/book"
	negRiskPath = "/neg-risk"
)

// Client es el cliente público del CLOB de Polymarket.
type Client struct {
	clob  *httpapi.Client
	books *httpapi.Client
}

// NewClient crea un Client. Si clobBase está vacío usa producción.
func NewClient(clobBase string, opts ...httpapi.Option) *Client {
	if clobBase == "" {
		clobBase = DefaultCLOBBase
	}
	return &Client{
		clob:  httpapi.New(clobBase, generalRatePerSec, 50, opts...),
		books: httpapi.New(clobBase, booksRatePerSec, 5, opts...),
	}
}

// FetchOrderBook devuelve el orderbook de tokenID.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	var resp orderBookResponse
	if err := c.books.Get(ctx, bookPath, url.Values{"token_id": {tokenID}}, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket.FetchOrderBook %s: %w", tokenID, err)
	}
	ob := mapOrderBook(resp)
	if ob.TokenID == "" {
		ob.TokenID = tokenID
	}
	return ob, nil
}

// IsNegRisk reports whether tokenID settles through the NegRisk exchange.
func (c *Client) IsNegRisk(ctx context.Context, tokenID string) (bool, error) {
	var resp clobNegRiskResponse
	if err := c.clob.Get(ctx, negRiskPath, url.Values{"token_id": {tokenID}}, &resp); err != nil {
		return false, fmt.Errorf("polymarket.IsNegRisk %s: %w", tokenID, err)
	}
	return resp.NegRisk, nil
}
