package evolution

import (
	"sort"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// Rank ordena los bots por pnl descendente. Empates: win rate descendente,
// luego nombre ascendente, para que el resultado sea determinista.
func Rank(bots []domain.Bot, perf map[string]domain.Performance) []domain.Ranking {
	out := make([]domain.Ranking, 0, len(bots))
	for _, b := range bots {
		p := perf[b.Name]
		p.BotName = b.Name
		out = append(out, domain.Ranking{
			BotName:      b.Name,
			StrategyType: b.StrategyType,
			Generation:   b.Generation,
			Performance:  p,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Performance, out[j].Performance
		if a.PnL != b.PnL {
			return a.PnL > b.PnL
		}
		if wa, wb := a.WinRate(), b.WinRate(); wa != wb {
			return wa > wb
		}
		return out[i].BotName < out[j].BotName
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
