package workflow

import "testing"

func idsOf(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestTopoOrderRespectsEdges(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
	}
	got := idsOf(TopoOrder(nodes, edges, nil))
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestTopoOrderConnectionOrderPriority mirrors spec.md §8 scenario 2: two
// independent roots feeding one target, authored in reverse of their node
// order, must be scheduled in connection (authoring) order of their edges
// into that shared target, not node-declaration order.
func TestTopoOrderConnectionOrderPriority(t *testing.T) {
	nodes := []Node{{ID: "i1"}, {ID: "i2"}, {ID: "m"}}
	edges := []Edge{
		{ID: "e-i2", Source: "i2", Target: "m"},
		{ID: "e-i1", Source: "i1", Target: "m"},
	}
	got := idsOf(TopoOrder(nodes, edges, nil))
	want := []string{"i2", "i1", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestTopoOrderCycleTolerantFallback verifies the guarantee that TopoOrder
// always returns exactly len(nodes) nodes even when edges contain a cycle.
func TestTopoOrderCycleTolerantFallback(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
		{ID: "e3", Source: "c", Target: "a"},
	}
	got := TopoOrder(nodes, edges, nil)
	if len(got) != len(nodes) {
		t.Fatalf("got %d nodes, want %d", len(got), len(nodes))
	}
	seen := make(map[string]bool)
	for _, n := range got {
		seen[n.ID] = true
	}
	for _, n := range nodes {
		if !seen[n.ID] {
			t.Errorf("node %q missing from cycle-tolerant output", n.ID)
		}
	}
}

func TestTopoOrderIdempotent(t *testing.T) {
	nodes := []Node{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	edges := []Edge{
		{ID: "e1", Source: "x", Target: "z"},
		{ID: "e2", Source: "y", Target: "z"},
	}
	first := idsOf(TopoOrder(nodes, edges, nil))
	second := idsOf(TopoOrder(nodes, edges, nil))
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("run 1 %v != run 2 %v", first, second)
		}
	}
}
