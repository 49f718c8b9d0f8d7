package report

import (
	"fmt"
	"kextdiff/internal/engine/category"
	"kextdiff/internal/engine/graph"
	"strings"
)

type DOTGenerator struct {
	graph *graph.Graph
	title string
}

func NewDOTGenerator(g *graph.Graph, title string) *DOTGenerator {
	return &DOTGenerator{graph: g, title: title}
}

// Generate renders the graph as a Graphviz digraph with one cluster per
// category. Edges on a dependency cycle are drawn in red.
func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph kext_dependencies {\n")
	if d.title != "" {
		buf.WriteString(fmt.Sprintf("  label=\"%s\";\n", escapeLabel(d.title)))
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycles := d.graph.DetectCycles()
	cycleEdges := make(map[string]map[string]bool)
	inCycle := make(map[string]bool)
	for _, cycle := range cycles {
		for i := 0; i < len(cycle); i++ {
			from := cycle[i]
			to := cycle[(i+1)%len(cycle)]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
			inCycle[from] = true
		}
	}

	byCategory := make(map[category.Category][]string)
	for _, rec := range d.graph.Records() {
		c := category.Classify(rec)
		byCategory[c] = append(byCategory[c], rec.BundleID)
	}

	for _, c := range category.All {
		ids := byCategory[c]
		if len(ids) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", c))
		buf.WriteString(fmt.Sprintf("    label=\"%s\";\n", c.Title()))
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")

		for _, id := range ids {
			rec, _ := d.graph.Node(id)
			label := fmt.Sprintf("%s\\n%s", escapeLabel(rec.DisplayName()), escapeLabel(rec.Version))
			if inCycle[id] {
				buf.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", dotID(id), label))
			} else {
				buf.WriteString(fmt.Sprintf("    %s [label=\"%s\", color=\"darkslategrey\"];\n", dotID(id), label))
			}
		}
		buf.WriteString("  }\n\n")
	}

	for _, e := range d.graph.Edges() {
		isCycle := cycleEdges[e.Source] != nil && cycleEdges[e.Source][e.Target]
		switch {
		case isCycle:
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", dotID(e.Source), dotID(e.Target)))
		case e.Kind == graph.Depends:
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"forestgreen\", penwidth=1.8];\n", dotID(e.Source), dotID(e.Target)))
		default:
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"grey\", style=dashed];\n", dotID(e.Source), dotID(e.Target)))
		}
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_depends [label=\"Depends\", shape=plaintext, fontcolor=\"forestgreen\"];\n")
	buf.WriteString("    legend_library [label=\"Uses Library\", shape=plaintext, fontcolor=\"grey\"];\n")
	buf.WriteString("    legend_cycle [label=\"Dependency Cycle\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\"];\n")
	buf.WriteString("  }\n")

	buf.WriteString("}\n")
	return buf.String(), nil
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, "'", "\n", " ")

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}

var dotIDEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// dotID quotes a bundle id as a DOT identifier. Distinct ids stay distinct.
func dotID(id string) string {
	return `"` + dotIDEscaper.Replace(id) + `"`
}
