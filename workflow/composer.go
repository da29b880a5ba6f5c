package workflow

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Composer linearizes a workflow's (Nodes, Edges) into the ordered,
// loop-unrolled execution sequence the Driver (Component G) walks — spec.md
// §4.B.
type Composer struct{}

// NewComposer returns a ready-to-use Composer. It carries no state of its
// own; a single instance may compose any number of workflows concurrently.
func NewComposer() *Composer { return &Composer{} }

// Compose deep-copies nodes, filters to the active subgraph, and dispatches
// to loop composition if any active node is a LOOP_START, or acyclic
// composition otherwise.
func (c *Composer) Compose(nodes []Node, edges []Edge) []Node {
	cloned := make([]Node, len(nodes))
	for i, n := range nodes {
		cloned[i] = n.Clone()
	}
	active, activeEdges := ActiveNodesAndEdges(cloned, edges)

	for _, n := range active {
		if n.Kind == KindLoopStart {
			return composeLoops(active, activeEdges)
		}
	}
	return composeAcyclic(active, activeEdges)
}

// composeAcyclic implements spec.md §4.B.1. Strongly-connected components
// among non-control nodes are computed for diagnostics — a genuine cycle
// among ordinary nodes is logged, since it almost certainly indicates an
// authoring mistake rather than an intended loop (real loops go through
// LOOP_START/LOOP_END and dispatch to composeLoops instead). Actual
// linearization is delegated entirely to the Topological Scheduler, whose
// own cycle-tolerant fallback already produces the same best-effort order
// the teacher's SCC-then-flatten pipeline would (see DESIGN.md OQ-2 for why
// this is a deliberately narrower reading than the literal "discard
// components containing no non-control node" instruction).
func composeAcyclic(nodes []Node, edges []Edge) []Node {
	if sccs := tarjanSCC(nodes, edges); len(sccs) > 0 {
		for _, comp := range sccs {
			log.Warn().Strs("nodes", comp).Msg("workflow: cyclic structure detected among non-control nodes")
		}
	}
	idx := NewEdgeIndex(edges)
	return TopoOrder(nodes, edges, idx)
}

// isBoundary reports whether k is a loop-boundary kind: LOOP_START and
// LOOP_END both act as walls that pre/in/post-loop partitioning never
// crosses (spec.md §4.B.2).
func isBoundary(k NodeKind) bool { return k == KindLoopStart || k == KindLoopEnd }

// undirectedNeighbors returns the distinct node ids adjacent to id via any
// edge, parents first then children, de-duplicated.
func undirectedNeighbors(id string, idx *EdgeIndex) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range idx.Parents(id) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, ch := range idx.Children(id) {
		if !seen[ch] {
			seen[ch] = true
			out = append(out, ch)
		}
	}
	return out
}

// findLoopEnd implements spec.md §4.B.2's LOOP_END resolution: a DFS
// forward from loopStartID, in edge-authoring order, that stops at the
// first LOOP_END encountered and treats any *other* LOOP_START as a
// pruning signal — its subtree is not explored, so nested loops don't
// leak into an outer loop's body search. Returns "" if no LOOP_END is
// reachable (an intentionally open loop).
func findLoopEnd(loopStartID string, idx *EdgeIndex, kindOf map[string]NodeKind) string {
	visited := map[string]bool{loopStartID: true}
	push := func(stack []string, ids []string) []string {
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, ids[i])
		}
		return stack
	}
	var stack []string
	stack = push(stack, idx.Children(loopStartID))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		switch kindOf[id] {
		case KindLoopEnd:
			return id
		case KindLoopStart:
			continue // pruning signal: do not descend into a nested loop
		}
		stack = push(stack, idx.Children(id))
	}
	return ""
}

// preLoopSet implements the "pre-loop nodes" walk: starting from
// loopStartID's parents, expand transitively in both directions, never
// adding or crossing a loop-boundary node.
func preLoopSet(loopStartID string, idx *EdgeIndex, kindOf map[string]NodeKind) map[string]bool {
	visited := make(map[string]bool)
	var frontier []string
	for _, p := range idx.Parents(loopStartID) {
		if isBoundary(kindOf[p]) || visited[p] {
			continue
		}
		visited[p] = true
		frontier = append(frontier, p)
	}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, nb := range undirectedNeighbors(id, idx) {
			if nb == loopStartID || isBoundary(kindOf[nb]) || visited[nb] {
				continue
			}
			visited[nb] = true
			frontier = append(frontier, nb)
		}
	}
	return visited
}

// inLoopSet implements the "in-loop nodes" walk: starting from
// loopStartID's immediate neighbors (both directions), expand transitively,
// excluding loop-boundary nodes and anything already classified as
// pre-loop.
func inLoopSet(loopStartID string, pre map[string]bool, idx *EdgeIndex, kindOf map[string]NodeKind) map[string]bool {
	visited := make(map[string]bool)
	var frontier []string
	for _, nb := range undirectedNeighbors(loopStartID, idx) {
		if isBoundary(kindOf[nb]) || pre[nb] || visited[nb] {
			continue
		}
		visited[nb] = true
		frontier = append(frontier, nb)
	}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, nb := range undirectedNeighbors(id, idx) {
			if nb == loopStartID || isBoundary(kindOf[nb]) || pre[nb] || visited[nb] {
				continue
			}
			visited[nb] = true
			frontier = append(frontier, nb)
		}
	}
	return visited
}

// postLoopSet implements the "post-loop nodes" walk: starting from
// loopEndID's immediate neighbors, expand transitively, excluding
// loop-boundary nodes and anything already classified as in-loop. Overlap
// with the pre-loop set (a diamond that rejoins after the loop) is expected
// and resolved by the caller, which drops any post-loop member also in
// pre-loop so it is emitted once, at its pre-loop position.
func postLoopSet(loopEndID string, inLoop map[string]bool, idx *EdgeIndex, kindOf map[string]NodeKind) map[string]bool {
	visited := make(map[string]bool)
	var frontier []string
	for _, nb := range undirectedNeighbors(loopEndID, idx) {
		if isBoundary(kindOf[nb]) || inLoop[nb] || visited[nb] {
			continue
		}
		visited[nb] = true
		frontier = append(frontier, nb)
	}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, nb := range undirectedNeighbors(id, idx) {
			if nb == loopEndID || isBoundary(kindOf[nb]) || inLoop[nb] || visited[nb] {
				continue
			}
			visited[nb] = true
			frontier = append(frontier, nb)
		}
	}
	return visited
}

// resolveIterationsOverride looks for a parent edge into loopStartID whose
// TargetHandle is "iterations-override" and whose source node carries a
// statically-readable integer (its Content, or failing that its
// InitialValue). Because composition happens before execution, a dynamic
// (templated) override value cannot be resolved here; only a literal
// integer authored directly on the source node is honored. See DESIGN.md
// OQ-3.
func resolveIterationsOverride(loopStartID string, idx *EdgeIndex, byID map[string]Node) (int, bool) {
	for _, e := range idx.ByTarget(loopStartID) {
		if e.TargetHandle != "iterations-override" {
			continue
		}
		src, ok := byID[e.Source]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(src.Data.Content)
		if raw == "" {
			raw = strings.TrimSpace(src.Data.InitialValue)
		}
		if n, err := strconv.Atoi(raw); err == nil {
			return n, true
		}
	}
	return 0, false
}

// composeLoops implements spec.md §4.B.2. Each active LOOP_START is
// processed in authoring order: its LOOP_END (if any) is resolved, the
// graph is partitioned into pre-loop / in-loop / post-loop node sets, each
// set is topologically sorted on its own induced subgraph, and the final
// sequence is pre-loop, then `iterations` consecutive copies of
// (LOOP_START, in-loop..., LOOP_END), then post-loop.
//
// Nodes already placed by an earlier LOOP_START in the same workflow are
// not re-emitted. Any node left unplaced once every loop has been processed
// (e.g. a component with no relation to any loop) is appended via one final
// acyclic pass, so composeLoops never silently drops an active node.
func composeLoops(nodes []Node, edges []Edge) []Node {
	idx := NewEdgeIndex(edges)
	kindOf := make(map[string]NodeKind, len(nodes))
	byID := make(map[string]Node, len(nodes))
	authorPos := make(map[string]int, len(nodes))
	for i, n := range nodes {
		kindOf[n.ID] = n.Kind
		byID[n.ID] = n
		authorPos[n.ID] = i
	}

	var loopStarts []Node
	for _, n := range nodes {
		if n.Kind == KindLoopStart {
			loopStarts = append(loopStarts, n)
		}
	}

	induced := func(set map[string]bool) []Edge {
		var es []Edge
		for _, e := range edges {
			if set[e.Source] && set[e.Target] {
				es = append(es, e)
			}
		}
		return es
	}
	sortedFromSet := func(set map[string]bool) []Node {
		ns := make([]Node, 0, len(set))
		for id := range set {
			ns = append(ns, byID[id])
		}
		sort.Slice(ns, func(i, j int) bool { return authorPos[ns[i].ID] < authorPos[ns[j].ID] })
		return TopoOrder(ns, induced(set), idx)
	}

	placed := make(map[string]bool)
	var out []Node

	for _, ls := range loopStarts {
		if placed[ls.ID] {
			continue
		}
		loopEndID := findLoopEnd(ls.ID, idx, kindOf)

		pre := preLoopSet(ls.ID, idx, kindOf)
		for id := range pre {
			if placed[id] {
				delete(pre, id)
			}
		}
		in := inLoopSet(ls.ID, pre, idx, kindOf)
		for id := range in {
			if placed[id] {
				delete(in, id)
			}
		}
		var post map[string]bool
		if loopEndID != "" {
			post = postLoopSet(loopEndID, in, idx, kindOf)
			for id := range post {
				if pre[id] || placed[id] {
					delete(post, id) // diamond: keep at its pre-loop position
				}
			}
		}

		preSorted := sortedFromSet(pre)
		inSorted := sortedFromSet(in)
		var postSorted []Node
		if post != nil {
			postSorted = sortedFromSet(post)
		}

		iterations := ls.Data.Iterations
		if override, ok := resolveIterationsOverride(ls.ID, idx, byID); ok {
			iterations = override
		}
		if iterations < 0 {
			iterations = 0
		}

		out = append(out, preSorted...)
		for _, n := range preSorted {
			placed[n.ID] = true
		}
		for i := 0; i < iterations; i++ {
			out = append(out, ls)
			out = append(out, inSorted...)
			if loopEndID != "" {
				out = append(out, byID[loopEndID])
			}
		}
		placed[ls.ID] = true
		for _, n := range inSorted {
			placed[n.ID] = true
		}
		if loopEndID != "" {
			placed[loopEndID] = true
		}
		out = append(out, postSorted...)
		for _, n := range postSorted {
			placed[n.ID] = true
		}
	}

	var remaining []Node
	for _, n := range nodes {
		if !placed[n.ID] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) > 0 {
		remSet := make(map[string]bool, len(remaining))
		for _, n := range remaining {
			remSet[n.ID] = true
		}
		out = append(out, TopoOrder(remaining, induced(remSet), idx)...)
	}

	return out
}
