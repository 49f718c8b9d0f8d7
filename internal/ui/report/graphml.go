package report

import (
	"encoding/xml"
	"fmt"
	"kextdiff/internal/engine/graph"
	"strings"
)

const (
	graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"
	graphMLGraphID   = "kext_dependencies"
	nodeLabelKey     = "d0"
	edgeLabelKey     = "d1"
)

type graphMLDocument struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type GraphMLGenerator struct {
	graph *graph.Graph
}

func NewGraphMLGenerator(g *graph.Graph) *GraphMLGenerator {
	return &GraphMLGenerator{graph: g}
}

func (m *GraphMLGenerator) Generate() (string, error) {
	doc := graphMLDocument{
		Xmlns: graphMLNamespace,
		Keys: []graphMLKey{
			{ID: nodeLabelKey, For: "node", AttrName: "label", AttrType: "string"},
			{ID: edgeLabelKey, For: "edge", AttrName: "label", AttrType: "string"},
		},
		Graph: graphMLGraph{ID: graphMLGraphID, EdgeDefault: "directed"},
	}

	for _, rec := range m.graph.Records() {
		label := fmt.Sprintf("%s\n%s\n[%s]", rec.DisplayName(), rec.Version, rec.SourceType)
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{
			ID:   GraphMLNodeID(rec.BundleID),
			Data: []graphMLData{{Key: nodeLabelKey, Value: label}},
		})
	}
	for _, e := range m.graph.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			Source: GraphMLNodeID(e.Source),
			Target: GraphMLNodeID(e.Target),
			Data:   []graphMLData{{Key: edgeLabelKey, Value: e.Kind.Label()}},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode graphml: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

// GraphMLNodeID maps a bundle id to a GraphML node id.
func GraphMLNodeID(bundleID string) string {
	return strings.ReplaceAll(bundleID, ".", "_")
}
