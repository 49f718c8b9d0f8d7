package report

import (
	"fmt"
	"kextdiff/internal/engine/category"
	"kextdiff/internal/engine/diff"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Padding(0, 1)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Padding(0, 1)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// RenderSummary formats the headline numbers of a comparison for a terminal.
func RenderSummary(res diff.Result, titleA, titleB string) string {
	titleA = nonEmpty(titleA, "A")
	titleB = nonEmpty(titleB, "B")

	rows := [][]string{
		pairRow("Kexts", res.Totals()),
		pairRow("Libraries", res.LibraryTotals),
		pairRow("Dependencies", res.DependencyTotals),
		pairRow("Graph edges", res.EdgeTotals),
		pairRow("Unique versions", res.UniqueVersions),
	}
	for _, c := range category.All {
		rows = append(rows, pairRow(c.Title(), res.CategoryPair(c)))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#334155"))).
		Headers("", titleA, titleB, "Δ").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(rows) {
				switch {
				case strings.HasPrefix(rows[row][3], "+"):
					return gainStyle
				case strings.HasPrefix(rows[row][3], "-"):
					return lossStyle
				}
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s vs %s", titleA, titleB)))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(noteStyle.Render(fmt.Sprintf(
		"%d common (%.1f%%), %d only in %s, %d only in %s",
		len(res.CommonIDs), res.CommonShare()*100,
		len(res.OnlyAIDs), titleA,
		len(res.OnlyBIDs), titleB,
	)))
	b.WriteString("\n")
	return b.String()
}

func pairRow(label string, p diff.Pair) []string {
	return []string{label, fmt.Sprint(p.A), fmt.Sprint(p.B), signed(p.Delta())}
}

func signed(n int) string {
	if n == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", n)
}
