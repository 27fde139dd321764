package ports

import (
	"context"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// EvolutionNotifier presenta el resultado de cada ciclo de evolución.
type EvolutionNotifier interface {
	NotifyEvolution(ctx context.Context, rec domain.EvolutionRecord) error
}
