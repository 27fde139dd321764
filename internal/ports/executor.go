package ports

import (
	"context"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// PaperSettlement submits simulated trades to the paper trading API.
type PaperSettlement interface {
	SubmitPaper(ctx context.Context, req domain.PaperOrderRequest) (domain.PaperFill, error)
}

// LiveSettlement places real orders on the CLOB.
type LiveSettlement interface {
	SubmitLive(ctx context.Context, req domain.LiveOrderRequest) (domain.LiveFill, error)

	// CancelOrder cancels a specific order by its CLOB order ID.
	CancelOrder(ctx context.Context, orderID string) error

	// CancelAll cancels all open orders for this wallet.
	CancelAll(ctx context.Context) error
}
