package cli

import (
	"fmt"
	"io"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/shared/util"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func renderResults(w io.Writer, results []ports.StepResult) {
	for _, res := range results {
		fmt.Fprintln(w, renderStep(res))
	}
}

func renderStep(res ports.StepResult) string {
	name := string(res.Step)
	if res.Dataset != "" {
		name += " " + res.Dataset
	}

	var b strings.Builder
	if res.OK {
		b.WriteString(successStyle.Render("✓ " + name))
	} else {
		b.WriteString(failureStyle.Render("✗ " + name))
	}

	if len(res.Counts) > 0 {
		parts := make([]string, 0, len(res.Counts))
		for _, key := range util.SortedStringKeys(res.Counts) {
			parts = append(parts, fmt.Sprintf("%s=%d", key, res.Counts[key]))
		}
		b.WriteString(" ")
		b.WriteString(statusStyle.Render(strings.Join(parts, " ")))
	}
	if len(res.Chain) > 0 {
		b.WriteString("\n  ")
		b.WriteString(strings.Join(res.Chain, " -> "))
	}
	verb := "wrote"
	if res.Step == ports.StepCheck {
		verb = "found"
	}
	for _, path := range res.Paths {
		b.WriteString("\n  " + verb + " " + path)
	}
	for _, path := range res.Missing {
		b.WriteString("\n  missing " + path)
	}
	if res.Err != nil {
		b.WriteString("\n  ")
		b.WriteString(failureStyle.Render("error: "))
		b.WriteString(res.Err.Error())
	}
	return b.String()
}
