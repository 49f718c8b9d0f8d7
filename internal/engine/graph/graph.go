// Package graph links kernel-extension records into a dependency graph.
package graph

import (
	"kextdiff/internal/engine/kext"
)

type EdgeKind string

const (
	Depends     EdgeKind = "depends"
	UsesLibrary EdgeKind = "uses_library"
)

// Label is the edge label written to graph exports.
func (k EdgeKind) Label() string {
	if k == UsesLibrary {
		return "uses library"
	}
	return string(k)
}

type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
}

// Graph is built once by Build and is read-only afterwards.
type Graph struct {
	nodes map[string]kext.Record
	order []string
	edges []Edge
}

type Options struct {
	// ParallelEdges keeps one edge per pair and kind instead of one per pair.
	ParallelEdges bool
}

type Option func(*Options)

func WithParallelEdges(enabled bool) Option {
	return func(o *Options) { o.ParallelEdges = enabled }
}

// pairKey identifies an unordered pair of ids, optionally split by kind.
type pairKey struct {
	lo, hi string
	kind   EdgeKind
}

func newPairKey(a, b string, kind EdgeKind, perKind bool) pairKey {
	if b < a {
		a, b = b, a
	}
	if !perKind {
		kind = ""
	}
	return pairKey{lo: a, hi: b, kind: kind}
}

// Build indexes records by bundle id (later duplicates replace earlier ones)
// and then adds an edge for every dependency and library reference whose
// target is in the dataset. Only the first edge between two ids survives;
// dependencies are processed before libraries for each record. Records with
// an empty bundle id are skipped.
func Build(records []kext.Record, opts ...Option) *Graph {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{nodes: make(map[string]kext.Record, len(records))}
	for _, r := range records {
		if !r.Indexable() {
			continue
		}
		if _, exists := g.nodes[r.BundleID]; !exists {
			g.order = append(g.order, r.BundleID)
		}
		g.nodes[r.BundleID] = r
	}

	claimed := make(map[pairKey]bool)
	link := func(source, target string, kind EdgeKind) {
		if _, ok := g.nodes[target]; !ok {
			return
		}
		key := newPairKey(source, target, kind, o.ParallelEdges)
		if claimed[key] {
			return
		}
		claimed[key] = true
		g.edges = append(g.edges, Edge{Source: source, Target: target, Kind: kind})
	}

	for _, id := range g.order {
		r := g.nodes[id]
		for _, dep := range r.Dependencies {
			link(id, dep, Depends)
		}
		for _, lib := range r.Libraries {
			link(id, lib, UsesLibrary)
		}
	}
	return g
}

func (g *Graph) Node(id string) (kext.Record, bool) {
	r, ok := g.nodes[id]
	return r, ok
}

func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) NodeCount() int {
	return len(g.order)
}

func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// IDs returns bundle ids in first-insertion order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Records returns the final record for each id in first-insertion order.
func (g *Graph) Records() []kext.Record {
	out := make([]kext.Record, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns edges in creation order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// EdgesFrom returns the outgoing edges of id.
func (g *Graph) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Dependents returns the ids with an edge into id, in edge order.
func (g *Graph) Dependents(id string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e.Source)
		}
	}
	return out
}
