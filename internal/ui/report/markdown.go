package report

import (
	"fmt"
	"kextdiff/internal/engine/category"
	"kextdiff/internal/engine/diff"
	"kextdiff/internal/engine/graph"
	"strings"
	"time"
)

// DefaultPreviewLimit caps the bundle id lists in the comparison report.
const DefaultPreviewLimit = 20

// collapseThreshold is the row count above which a collapsible table is
// folded into a <details> block.
const collapseThreshold = 10

// Side is one compared dataset as the report sees it.
type Side struct {
	Title string
	Graph *graph.Graph
}

type MarkdownReportData struct {
	Result diff.Result
	A      Side
	B      Side
}

// KeywordGroup counts the one-sided bundle ids whose id or name contains any
// of Keywords, case-insensitively.
type KeywordGroup struct {
	Title    string
	Keywords []string
}

type MarkdownReportOptions struct {
	RunID               string
	Version             string
	GeneratedAt         time.Time
	PreviewLimit        int
	TopLinked           int
	CollapsibleSections bool
	KeywordGroups       []KeywordGroup
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Generate renders the comparison report. Every figure comes from
// data.Result; the graphs are only consulted for names, versions, fan-in and
// cycles.
func (m *MarkdownGenerator) Generate(data MarkdownReportData, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = DefaultPreviewLimit
	}
	titleA := nonEmpty(data.A.Title, "A")
	titleB := nonEmpty(data.B.Title, "B")
	res := data.Result

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(fmt.Sprintf("title: %s vs %s Comparison Report\n", titleA, titleB))
	b.WriteString("run_id: " + nonEmpty(opts.RunID, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString(fmt.Sprintf("# %s vs %s Comparison Report\n\n", titleA, titleB))

	b.WriteString("## Overall Statistics\n")
	b.WriteString(fmt.Sprintf("| Metric | %s | %s | Difference |\n", titleA, titleB))
	b.WriteString("| --- | --- | --- | --- |\n")
	writePairRow(&b, "Kexts", res.Totals())
	writePairRow(&b, "Graph edges", res.EdgeTotals)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("- Common kexts: **%d** (about %.1f%% of the larger set)\n", len(res.CommonIDs), res.CommonShare()*100))
	b.WriteString(fmt.Sprintf("- Only in %s: %d\n", titleA, len(res.OnlyAIDs)))
	b.WriteString(fmt.Sprintf("- Only in %s: %d\n\n", titleB, len(res.OnlyBIDs)))

	b.WriteString("## Library & Dependency Totals\n")
	b.WriteString(fmt.Sprintf("| Metric | %s | %s | Difference |\n", titleA, titleB))
	b.WriteString("| --- | --- | --- | --- |\n")
	writePairRow(&b, "Libraries", res.LibraryTotals)
	writePairRow(&b, "Dependencies", res.DependencyTotals)
	b.WriteString("\n")

	b.WriteString("## Category Distribution\n")
	b.WriteString(fmt.Sprintf("| Category | %s | %s | Difference |\n", titleA, titleB))
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, c := range category.All {
		p := res.CategoryPair(c)
		b.WriteString(fmt.Sprintf("| **%s** | %d | %d | %+d |\n", c.Title(), p.A, p.B, p.Delta()))
	}
	b.WriteString("\n")

	b.WriteString("## Bundle ID Comparison\n")
	m.writePreview(&b, "Only in "+titleA, res.OnlyAIDs, data.A.Graph, opts)
	m.writePreview(&b, "Only in "+titleB, res.OnlyBIDs, data.B.Graph, opts)
	if len(opts.KeywordGroups) > 0 {
		writeKeywordBreakdown(&b, titleA, titleB, res, data, opts.KeywordGroups)
	}

	b.WriteString("## Version Statistics\n")
	b.WriteString(fmt.Sprintf("- %s unique versions: %d\n", titleA, res.UniqueVersions.A))
	b.WriteString(fmt.Sprintf("- %s unique versions: %d\n\n", titleB, res.UniqueVersions.B))
	writeHistogram(&b, titleA, res.VersionHistogram.A)
	writeHistogram(&b, titleB, res.VersionHistogram.B)

	if opts.TopLinked > 0 {
		b.WriteString("## Most Depended-On Kexts\n")
		m.writeTopLinked(&b, titleA, data.A.Graph, opts.TopLinked)
		m.writeTopLinked(&b, titleB, data.B.Graph, opts.TopLinked)
	}

	b.WriteString("## Dependency Cycles\n")
	writeCycles(&b, titleA, data.A.Graph)
	writeCycles(&b, titleB, data.B.Graph)

	return b.String(), nil
}

func (m *MarkdownGenerator) writePreview(b *strings.Builder, heading string, ids []string, g *graph.Graph, opts MarkdownReportOptions) {
	b.WriteString(fmt.Sprintf("### %s (%d)\n", heading, len(ids)))
	if len(ids) == 0 {
		b.WriteString("None.\n\n")
		return
	}

	shown := ids
	if len(shown) > opts.PreviewLimit {
		shown = shown[:opts.PreviewLimit]
	}
	rows := make([]string, 0, len(shown))
	for i, id := range shown {
		name, version := diff.MissingVersion, diff.MissingVersion
		if g != nil {
			if rec, ok := g.Node(id); ok {
				name = nonEmpty(rec.Name, diff.MissingVersion)
				version = nonEmpty(rec.Version, diff.MissingVersion)
			}
		}
		rows = append(rows, fmt.Sprintf("| %d | %s | %s | `%s` |\n", i+1, name, version, id))
	}
	m.writeTableWithCollapse(
		b,
		heading,
		opts.CollapsibleSections,
		len(rows) > collapseThreshold,
		[]string{"| # | Name | Version | Bundle ID |\n", "| --- | --- | --- | --- |\n"},
		rows,
	)
	if hidden := len(ids) - len(shown); hidden > 0 {
		b.WriteString(fmt.Sprintf("_%d more not shown._\n\n", hidden))
	}
}

func (m *MarkdownGenerator) writeTopLinked(b *strings.Builder, title string, g *graph.Graph, n int) {
	b.WriteString(fmt.Sprintf("### %s\n", title))
	if g == nil {
		b.WriteString("No graph available.\n\n")
		return
	}
	top := g.TopDependedOn(n)
	if len(top) == 0 {
		b.WriteString("No kext is linked against.\n\n")
		return
	}
	b.WriteString("| Bundle ID | Fan-in | Fan-out |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, row := range top {
		b.WriteString(fmt.Sprintf("| `%s` | %d | %d |\n", row.ID, row.FanIn, row.FanOut))
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func writeKeywordBreakdown(b *strings.Builder, titleA, titleB string, res diff.Result, data MarkdownReportData, groups []KeywordGroup) {
	b.WriteString("### Keyword Breakdown\n")
	b.WriteString(fmt.Sprintf("| Group | Only in %s | Only in %s |\n", titleA, titleB))
	b.WriteString("| --- | --- | --- |\n")
	for _, group := range groups {
		b.WriteString(fmt.Sprintf("| %s | %d | %d |\n",
			group.Title,
			countMatching(res.OnlyAIDs, data.A.Graph, group.Keywords),
			countMatching(res.OnlyBIDs, data.B.Graph, group.Keywords),
		))
	}
	b.WriteString("\n")
}

func countMatching(ids []string, g *graph.Graph, keywords []string) int {
	n := 0
	for _, id := range ids {
		name := ""
		if g != nil {
			if rec, ok := g.Node(id); ok {
				name = rec.Name
			}
		}
		haystack := strings.ToLower(id + "\x00" + name)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
				n++
				break
			}
		}
	}
	return n
}

func writePairRow(b *strings.Builder, label string, p diff.Pair) {
	b.WriteString(fmt.Sprintf("| %s | %d | %d | %+d |\n", label, p.A, p.B, p.Delta()))
}

func writeHistogram(b *strings.Builder, title string, rows []diff.VersionCount) {
	b.WriteString(fmt.Sprintf("### Most common versions in %s\n", title))
	if len(rows) == 0 {
		b.WriteString("No versions recorded.\n\n")
		return
	}
	b.WriteString("| Version | Kexts |\n")
	b.WriteString("| --- | --- |\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", row.Version, row.Count))
	}
	b.WriteString("\n")
}

func writeCycles(b *strings.Builder, title string, g *graph.Graph) {
	var cycles [][]string
	if g != nil {
		cycles = g.DetectCycles()
	}
	if len(cycles) == 0 {
		b.WriteString(fmt.Sprintf("No dependency cycles in %s.\n\n", title))
		return
	}
	b.WriteString(fmt.Sprintf("### %s\n", title))
	for i, cycle := range cycles {
		b.WriteString(fmt.Sprintf("%d. `%s`\n", i+1, strings.Join(cycle, " -> ")+" -> "+cycle[0]))
	}
	b.WriteString("\n")
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
