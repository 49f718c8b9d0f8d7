package graph

import "sort"

type NodeMetrics struct {
	ID     string
	FanIn  int
	FanOut int
}

// ComputeMetrics counts incoming and outgoing edges for every node.
func (g *Graph) ComputeMetrics() map[string]NodeMetrics {
	metrics := make(map[string]NodeMetrics, len(g.order))
	for _, id := range g.order {
		metrics[id] = NodeMetrics{ID: id}
	}
	for _, e := range g.edges {
		src := metrics[e.Source]
		src.FanOut++
		metrics[e.Source] = src

		dst := metrics[e.Target]
		dst.FanIn++
		metrics[e.Target] = dst
	}
	return metrics
}

// TopDependedOn returns up to n nodes with the highest fan-in. Ties keep
// insertion order. Nodes nobody links to are left out.
func (g *Graph) TopDependedOn(n int) []NodeMetrics {
	if n <= 0 {
		return nil
	}
	metrics := g.ComputeMetrics()
	out := make([]NodeMetrics, 0, len(metrics))
	for _, id := range g.order {
		if m := metrics[id]; m.FanIn > 0 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FanIn > out[j].FanIn
	})
	if len(out) > n {
		return out[:n]
	}
	return out
}
