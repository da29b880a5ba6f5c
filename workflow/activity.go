package workflow

// inactiveClosure computes the node ids spec.md §3's active invariant skips:
// a node is inactive iff its own Data.Active is false, or any upstream
// ancestor (reachable by following edges forward from it) has Data.Active
// false. The closure is computed once over the *original* node/edge list,
// before composition, so it reflects the full graph rather than whatever
// subset a particular composition pass happens to be looking at.
func inactiveClosure(nodes []Node, edges []Edge) map[string]bool {
	idx := NewEdgeIndex(edges)
	skip := make(map[string]bool)
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if !n.Data.IsActive() {
			skip[n.ID] = true
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range idx.Children(id) {
			if !skip[child] {
				skip[child] = true
				queue = append(queue, child)
			}
		}
	}
	return skip
}

// ActiveNodesAndEdges filters nodes/edges down to the active subgraph: nodes
// not in the inactive closure, and edges whose both endpoints survive that
// filter (spec.md §4.B step 1: "an edge is active iff both endpoints are
// active"). Order is preserved.
func ActiveNodesAndEdges(nodes []Node, edges []Edge) ([]Node, []Edge) {
	skip := inactiveClosure(nodes, edges)
	activeSet := make(map[string]bool, len(nodes))
	activeNodes := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !skip[n.ID] {
			activeNodes = append(activeNodes, n)
			activeSet[n.ID] = true
		}
	}
	activeEdges := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if activeSet[e.Source] && activeSet[e.Target] {
			activeEdges = append(activeEdges, e)
		}
	}
	return activeNodes, activeEdges
}

// IsInactive reports whether nodeID is excluded from execution under the
// full active/inactive-closure invariant, computed over nodes/edges.
func IsInactive(nodeID string, nodes []Node, edges []Edge) bool {
	return inactiveClosure(nodes, edges)[nodeID]
}
