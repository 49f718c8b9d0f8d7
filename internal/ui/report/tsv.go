package report

import (
	"fmt"
	"kextdiff/internal/engine/graph"
	"strings"
)

type TSVGenerator struct {
	graph *graph.Graph
}

func NewTSVGenerator(g *graph.Graph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Source\tTarget\tKind\n")
	for _, e := range t.graph.Edges() {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\n", e.Source, e.Target, e.Kind))
	}

	return buf.String(), nil
}
