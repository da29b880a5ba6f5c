package workflow

import (
	"math"
	"sort"
)

// TopoOrder linearizes nodes using Kahn's algorithm (Component C), tied off
// with spec.md's deterministic priority rule: a ready node's priority is the
// minimum connection-order (Component A) its outgoing edges hold at their
// targets, or +∞ if it has none. The ready queue is re-sorted by priority
// after every pop, and ties fall back to the node's original authoring
// position.
//
// edges must already be restricted to pairs where both endpoints are in
// nodes — callers composing a subgraph (a loop's pre/in/post-loop set, say)
// pass the edge set induced by that subgraph. global supplies
// ConnectionOrder against the full, unfiltered edge list so priorities stay
// stable across different subgraph passes; pass nil to derive it from edges
// instead.
//
// If nodes contains a genuine cycle, the queue empties before every node is
// placed. spec.md §4.C's cycle-tolerant fallback then promotes the
// unprocessed node with the lowest current in-degree (ties broken by
// authoring order) and continues, guaranteeing TopoOrder always returns
// exactly len(nodes) nodes.
func TopoOrder(nodes []Node, edges []Edge, global *EdgeIndex) []Node {
	if global == nil {
		global = NewEdgeIndex(edges)
	}
	local := NewEdgeIndex(edges)

	byID := make(map[string]Node, len(nodes))
	authorPos := make(map[string]int, len(nodes))
	remaining := make(map[string]bool, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = n
		authorPos[n.ID] = i
		remaining[n.ID] = true
		inDegree[n.ID] = 0
	}
	for _, e := range edges {
		if remaining[e.Source] && remaining[e.Target] {
			inDegree[e.Target]++
		}
	}

	priorityOf := func(id string) int {
		best := -1
		for _, e := range local.BySource(id) {
			if !remaining[e.Target] {
				continue
			}
			order := global.ConnectionOrder(e)
			if order < 0 {
				continue
			}
			if best == -1 || order < best {
				best = order
			}
		}
		if best == -1 {
			return math.MaxInt
		}
		return best
	}

	sortQueue := func(q []string) {
		sort.SliceStable(q, func(i, j int) bool {
			pi, pj := priorityOf(q[i]), priorityOf(q[j])
			if pi != pj {
				return pi < pj
			}
			return authorPos[q[i]] < authorPos[q[j]]
		})
	}

	var queue []string
	for id := range remaining {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sortQueue(queue)

	result := make([]Node, 0, len(nodes))
	for len(result) < len(nodes) {
		if len(queue) == 0 {
			// Cycle-tolerant fallback: promote the unprocessed node of
			// lowest current in-degree, ties broken by authoring order.
			var candidates []string
			for id := range remaining {
				candidates = append(candidates, id)
			}
			if len(candidates) == 0 {
				break
			}
			sort.Slice(candidates, func(i, j int) bool {
				if inDegree[candidates[i]] != inDegree[candidates[j]] {
					return inDegree[candidates[i]] < inDegree[candidates[j]]
				}
				return authorPos[candidates[i]] < authorPos[candidates[j]]
			})
			queue = append(queue, candidates[0])
		}

		id := queue[0]
		queue = queue[1:]
		if !remaining[id] {
			continue
		}
		delete(remaining, id)
		result = append(result, byID[id])

		for _, e := range local.BySource(id) {
			if !remaining[e.Target] {
				continue
			}
			inDegree[e.Target]--
			if inDegree[e.Target] <= 0 {
				already := false
				for _, q := range queue {
					if q == e.Target {
						already = true
						break
					}
				}
				if !already {
					queue = append(queue, e.Target)
				}
			}
		}
		sortQueue(queue)
	}
	return result
}
