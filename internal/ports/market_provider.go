package ports

import (
	"context"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// MarketProvider lista los mercados del venue de market data.
type MarketProvider interface {
	// ActiveMarkets devuelve los mercados abiertos a trading.
	ActiveMarkets(ctx context.Context) ([]domain.Market, error)

	// ResolvedMarkets devuelve los mercados ya resueltos, con Outcome definido.
	ResolvedMarkets(ctx context.Context) ([]domain.Market, error)
}
