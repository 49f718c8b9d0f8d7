package graph

// DetectCycles returns every dependency cycle reachable by depth-first search
// from the nodes in insertion order. Each cycle lists its ids starting at the
// node where the search re-entered it.
func (g *Graph) DetectCycles() [][]string {
	adj := g.adjacency()
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, id := range g.order {
		if !visited[id] {
			findCycles(adj, id, visited, onStack, []string{}, &cycles)
		}
	}
	return cycles
}

func findCycles(adj map[string][]string, curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range adj[curr] {
		if onStack[next] {
			start := -1
			for i, id := range path {
				if id == next {
					start = i
					break
				}
			}
			if start != -1 {
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			findCycles(adj, next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindChain returns the shortest edge path from one bundle id to another.
func (g *Graph) FindChain(from, to string) ([]string, bool) {
	if !g.Has(from) || !g.Has(to) {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	adj := g.adjacency()
	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range adj[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// adjacency lists targets per source in edge order.
func (g *Graph) adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.order))
	for _, e := range g.edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}
