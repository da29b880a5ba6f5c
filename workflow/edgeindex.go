package workflow

// EdgeIndex precomputes the by-source, by-target, and by-id maps over a
// workflow's edges (Component A). Insertion order within bySource/byTarget
// is preserved and defines "connection order" — the tie-breaker for Kahn's
// algorithm (Component C) and the 1-indexing for `${N}` template
// substitution (Component E).
type EdgeIndex struct {
	bySource map[string][]Edge
	byTarget map[string][]Edge
	byID     map[string]Edge
}

// NewEdgeIndex builds an EdgeIndex from edges, preserving their order.
func NewEdgeIndex(edges []Edge) *EdgeIndex {
	idx := &EdgeIndex{
		bySource: make(map[string][]Edge, len(edges)),
		byTarget: make(map[string][]Edge, len(edges)),
		byID:     make(map[string]Edge, len(edges)),
	}
	for _, e := range edges {
		idx.bySource[e.Source] = append(idx.bySource[e.Source], e)
		idx.byTarget[e.Target] = append(idx.byTarget[e.Target], e)
		idx.byID[e.ID] = e
	}
	return idx
}

// BySource returns the edges leaving nodeID, in authoring order.
func (x *EdgeIndex) BySource(nodeID string) []Edge { return x.bySource[nodeID] }

// ByTarget returns the edges arriving at nodeID, in authoring (connection)
// order.
func (x *EdgeIndex) ByTarget(nodeID string) []Edge { return x.byTarget[nodeID] }

// ByID looks up an edge by its id.
func (x *EdgeIndex) ByID(edgeID string) (Edge, bool) {
	e, ok := x.byID[edgeID]
	return e, ok
}

// ConnectionOrder returns the ordinal index (0-based) of edge among the
// edges sharing its Target, or -1 if edge is not indexed under its target.
func (x *EdgeIndex) ConnectionOrder(edge Edge) int {
	for i, e := range x.byTarget[edge.Target] {
		if e.ID == edge.ID {
			return i
		}
	}
	return -1
}

// Parents returns the distinct source node ids of edges arriving at nodeID,
// in connection order, de-duplicated keeping first occurrence.
func (x *EdgeIndex) Parents(nodeID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range x.byTarget[nodeID] {
		if !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

// Children returns the distinct target node ids of edges leaving nodeID, in
// authoring order, de-duplicated keeping first occurrence.
func (x *EdgeIndex) Children(nodeID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range x.bySource[nodeID] {
		if !seen[e.Target] {
			seen[e.Target] = true
			out = append(out, e.Target)
		}
	}
	return out
}
