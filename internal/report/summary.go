// Package report renders the console summary of a tracker run.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"price-tracker/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#73F59F"})
	failStyle   = cellStyle.Foreground(lipgloss.Color("203"))
)

// Render returns a table with one row per reading followed by a totals line.
func Render(readings []domain.PriceReading) string {
	rows := make([][]string, 0, len(readings))
	failed := 0
	for _, r := range readings {
		price, detail := "-", r.Title
		if r.Status.Failed() {
			failed++
			detail = r.Reason
		} else {
			price = fmt.Sprintf("€ %s", r.PriceString())
		}
		rows = append(rows, []string{r.Site.Host(), string(r.Status), price, detail})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SITE", "STATUS", "PRICE", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && readings[row].Status.Failed():
				return failStyle
			case col == 1:
				return okStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d ok, %d failed\n", len(readings)-failed, failed)
	return b.String()
}
