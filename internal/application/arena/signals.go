package arena

// signals.go — reúne las señales del ciclo.
//
// Price y sentiment son snapshots de feeds en background (lecturas baratas).
// El order-flow es una llamada HTTP por mercado, así que se pide en paralelo
// con un worker pool.

import (
	"context"
	"sync"

	"github.com/alejandrodnm/polyarena/internal/domain"
	"github.com/alejandrodnm/polyarena/internal/ports"
)

// collectSignals devuelve las señales de cada mercado indexadas por ID.
func (a *Arena) collectSignals(ctx context.Context, markets []domain.Market) map[string]domain.Signals {
	base := domain.Signals{}
	if a.deps.Prices != nil {
		base.Price = a.deps.Prices.PriceSignals(a.cfg.Symbol)
	}
	if a.deps.Sentiment != nil {
		if snap, ok := a.deps.Sentiment.SentimentSignals(a.cfg.Symbol); ok {
			base.Sentiment = &snap
		}
	}

	var flows map[string]domain.OrderflowSnapshot
	if a.deps.Orderflow != nil {
		flows = fetchOrderflow(ctx, a.deps.Orderflow, markets, a.cfg.OrderflowWorkers)
	}

	out := make(map[string]domain.Signals, len(markets))
	for _, m := range markets {
		sig := base
		if f, ok := flows[m.ID]; ok {
			sig.Orderflow = &f
		}
		out[m.ID] = sig
	}
	return out
}

// fetchOrderflow pide el contexto de cada mercado con un pool de workers.
// Los mercados sin respuesta quedan fuera del mapa.
func fetchOrderflow(ctx context.Context, src ports.OrderflowSource, markets []domain.Market, workers int) map[string]domain.OrderflowSnapshot {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(markets) {
		workers = len(markets)
	}

	type result struct {
		id   string
		snap domain.OrderflowSnapshot
	}

	workCh := make(chan string, len(markets))
	resultCh := make(chan result, len(markets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range workCh {
				if snap, ok := src.OrderflowSignals(ctx, id); ok {
					resultCh <- result{id: id, snap: snap}
				}
			}
		}()
	}

	for _, m := range markets {
		workCh <- m.ID
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make(map[string]domain.OrderflowSnapshot, len(markets))
	for r := range resultCh {
		out[r.id] = r.snap
	}
	return out
}
