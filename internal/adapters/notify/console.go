// Package notify presenta los ResultSets al usuario.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
)

// Console implementa ports.Notifier imprimiendo una tabla por ciclo.
type Console struct {
	out   io.Writer
	table bool
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el set en orden de ranking.
func (c *Console) Notify(_ context.Context, set domain.ResultSet) error {
	now := set.Timestamp.Format("15:04:05")
	if len(set.Recommendations) == 0 {
		fmt.Fprintf(c.out, "[%s] %s/%s: sin recomendaciones este ciclo (source: %s)\n",
			now, set.Strategy, set.RiskLevel, set.Source)
		return nil
	}

	cached := ""
	if set.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(c.out, "\n[%s] %d recomendaciones — %s/%s via %s%s\n",
		now, len(set.Recommendations), set.Strategy, set.RiskLevel, set.Source, cached)

	if c.table {
		c.printTable(set.Recommendations)
	} else {
		c.printCompact(set.Recommendations)
	}
	return nil
}

// printCompact imprime una línea por recomendación.
func (c *Console) printCompact(recs []domain.Recommendation) {
	for i, r := range recs {
		fmt.Fprintf(c.out, "%d. %s %s x%d @%.1f¢ → target %.1f stop %.1f [%s] $%.2f\n",
			i+1, r.Action, compactName(r.MarketTitle, 30), r.Contracts,
			r.Probability, r.TargetExit, r.StopLoss, r.Confidence, r.Cost)
	}
}

// printTable imprime la tabla completa con el rationale.
func (c *Console) printTable(recs []domain.Recommendation) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Action", "Qty", "Price", "Target", "Stop", "Conf", "Cost", "Strategy")

	for i, r := range recs {
		table.Append(
			fmt.Sprintf("%d", i+1),
			compactName(r.MarketTitle, 32),
			string(r.Action),
			fmt.Sprintf("%d", r.Contracts),
			fmt.Sprintf("%.1f¢", r.Probability),
			fmt.Sprintf("%.1f¢", r.TargetExit),
			fmt.Sprintf("%.1f¢", r.StopLoss),
			string(r.Confidence),
			fmt.Sprintf("$%.2f", r.Cost),
			string(r.Strategy),
		)
	}
	table.Render()

	for i, r := range recs {
		if r.Rationale != "" {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, r.Rationale)
		}
	}
}

// compactName recorta un título a maxLen con elipsis.
func compactName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	if maxLen <= 3 {
		return name[:maxLen]
	}
	return name[:maxLen-3] + "..."
}

// Silent descarta los sets; útil cuando el advisor corre solo como API.
type Silent struct{}

var _ ports.Notifier = Silent{}

func (Silent) Notify(context.Context, domain.ResultSet) error { return nil }
