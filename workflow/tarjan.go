package workflow

// tarjanSCC finds strongly-connected components of size > 1 in the subgraph
// induced by non-control nodes: control nodes (LOOP_START, LOOP_END,
// IF_ELSE) are walked over as ordinary vertices elsewhere in the graph, but
// are never used as edge targets here, so they can never participate in or
// merge a cycle (spec.md §4.B.1: "control nodes cannot merge cycles").
//
// It uses an explicit work stack rather than recursion — spec.md §9 Design
// Notes call this out so a pathologically large graph can't blow the
// goroutine stack. Result components are only the genuine cycles; singleton
// "components" (the overwhelming majority of nodes in an acyclic workflow)
// are omitted, since composeAcyclic only consults this for diagnostics (see
// DESIGN.md, OQ-2).
func tarjanSCC(nodes []Node, edges []Edge) [][]string {
	idx := NewEdgeIndex(edges)
	nonControl := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !isControlKind(n.Kind) {
			nonControl[n.ID] = true
		}
	}
	neighbors := func(id string) []string {
		var out []string
		for _, e := range idx.BySource(id) {
			if nonControl[e.Target] {
				out = append(out, e.Target)
			}
		}
		return out
	}

	index := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var sccs [][]string
	counter := 0

	type frame struct {
		id       string
		children []string
		i        int
	}

	for _, root := range nodes {
		if !nonControl[root.ID] {
			continue
		}
		if _, seen := index[root.ID]; seen {
			continue
		}

		var work []*frame
		push := func(id string) {
			index[id] = counter
			lowlink[id] = counter
			counter++
			stack = append(stack, id)
			onStack[id] = true
			work = append(work, &frame{id: id, children: neighbors(id)})
		}
		push(root.ID)

		for len(work) > 0 {
			top := work[len(work)-1]
			if top.i < len(top.children) {
				w := top.children[top.i]
				top.i++
				if _, seen := index[w]; !seen {
					push(w)
					continue
				}
				if onStack[w] && index[w] < lowlink[top.id] {
					lowlink[top.id] = index[w]
				}
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1]
				if lowlink[top.id] < lowlink[parent.id] {
					lowlink[parent.id] = lowlink[top.id]
				}
			}
			if lowlink[top.id] == index[top.id] {
				var comp []string
				for {
					n := len(stack) - 1
					w := stack[n]
					stack = stack[:n]
					onStack[w] = false
					comp = append(comp, w)
					if w == top.id {
						break
					}
				}
				if len(comp) > 1 {
					sccs = append(sccs, comp)
				}
			}
		}
	}
	return sccs
}
