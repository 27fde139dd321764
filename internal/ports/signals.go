package ports

import (
	"context"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// PriceSource is a background price feed. Reads never block on the feed's
// update cycle and return a copy.
type PriceSource interface {
	PriceSignals(symbol string) domain.PriceSnapshot
}

// SentimentSource is a background sentiment feed.
// ok is false until the first poll completes.
type SentimentSource interface {
	SentimentSignals(symbol string) (snap domain.SentimentSnapshot, ok bool)
}

// OrderflowSource fetches the per-market context on demand.
type OrderflowSource interface {
	OrderflowSignals(ctx context.Context, marketID string) (snap domain.OrderflowSnapshot, ok bool)
}
