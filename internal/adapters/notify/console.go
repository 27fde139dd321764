package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// Console implementa ports.EvolutionNotifier y el resumen por ciclo.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// NotifyEvolution imprime el ranking del ciclo con el estado de cada bot.
func (c *Console) NotifyEvolution(_ context.Context, rec domain.EvolutionRecord) error {
	fmt.Fprintf(c.out, "\n[%s] evolution cycle %d — %d bots ranked\n",
		rec.CreatedAt.Format("15:04:05"), rec.Cycle, len(rec.Rankings))

	survivors := make(map[string]bool, len(rec.Survivors))
	for _, s := range rec.Survivors {
		survivors[s] = true
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Bot", "Strategy", "Gen", "PnL", "Win%", "W/L", "Trades", "Status")
	for _, r := range rec.Rankings {
		status := "REPLACED"
		if survivors[r.BotName] {
			status = "SURVIVES"
		}
		p := r.Performance
		table.Append(
			fmt.Sprintf("%d", r.Rank),
			compactName(r.BotName, 28),
			r.StrategyType,
			fmt.Sprintf("%d", r.Generation),
			fmt.Sprintf("%+.2f", p.PnL),
			fmt.Sprintf("%.0f%%", p.WinRate()*100),
			fmt.Sprintf("%d/%d", p.Wins, p.Losses),
			fmt.Sprintf("%d", p.Trades),
			status,
		)
	}
	table.Render()

	if len(rec.NewBots) > 0 {
		fmt.Fprintf(c.out, "  new bots: %s\n", strings.Join(rec.NewBots, ", "))
	}
	return nil
}

// PrintCycle imprime una línea por iteración del loop. Sin verbose, las
// iteraciones sin actividad no se imprimen.
func (c *Console) PrintCycle(r domain.CycleReport) {
	if !c.verbose && r.Attempts == 0 && r.Resolved == 0 && !r.Evolved {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] mkts:%d attempts:%d trades:%d skipped:%d resolved:%d",
		r.StartedAt.Format("15:04:05"), r.Markets, r.Attempts, r.Trades, r.Skipped, r.Resolved)

	if len(r.Rejections) > 0 {
		reasons := make([]string, 0, len(r.Rejections))
		for reason, n := range r.Rejections {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
		sort.Strings(reasons)
		fmt.Fprintf(&sb, " | rejected %s", strings.Join(reasons, " "))
	}
	if r.Evolved {
		sb.WriteString(" | evolved")
	}
	fmt.Fprintf(&sb, " (%s)", r.Duration.Round(time.Millisecond))
	fmt.Fprintln(c.out, sb.String())
}

// compactName trunca s a max runas con "...".
func compactName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
