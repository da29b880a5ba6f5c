package workflow

import "testing"

func boolPtr(b bool) *bool { return &b }

// TestComposeLinear mirrors spec.md §8 scenario 1.
func TestComposeLinear(t *testing.T) {
	nodes := []Node{
		{ID: "A", Kind: KindCLI},
		{ID: "B", Kind: KindCLI},
		{ID: "C", Kind: KindPreview},
	}
	edges := []Edge{
		{ID: "e1", Source: "A", Target: "B"},
		{ID: "e2", Source: "B", Target: "C"},
	}
	got := idsOf(NewComposer().Compose(nodes, edges))
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestComposeConnectionOrder mirrors spec.md §8 scenario 2.
func TestComposeConnectionOrder(t *testing.T) {
	nodes := []Node{
		{ID: "I1", Kind: KindInput},
		{ID: "I2", Kind: KindInput},
		{ID: "M", Kind: KindInput},
	}
	edges := []Edge{
		{ID: "e-i2", Source: "I2", Target: "M"},
		{ID: "e-i1", Source: "I1", Target: "M"},
	}
	got := idsOf(NewComposer().Compose(nodes, edges))
	want := []string{"I2", "I1", "M"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestComposeLoopUnrolling mirrors spec.md §8 scenario 3: LOOP_START with
// iterations=2 and body N must emit exactly 2 consecutive copies of
// (LOOP_START, N, LOOP_END).
func TestComposeLoopUnrolling(t *testing.T) {
	nodes := []Node{
		{ID: "L_START", Kind: KindLoopStart, Data: NodeData{Iterations: 2, LoopVariable: "i"}},
		{ID: "N", Kind: KindInput, Data: NodeData{Content: "${i}"}},
		{ID: "L_END", Kind: KindLoopEnd},
	}
	edges := []Edge{
		{ID: "e1", Source: "L_START", Target: "N"},
		{ID: "e2", Source: "N", Target: "L_END"},
	}
	got := idsOf(NewComposer().Compose(nodes, edges))
	want := []string{"L_START", "N", "L_END", "L_START", "N", "L_END"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestComposeSkipsInactiveClosure verifies that an inactive node and
// everything only reachable through it are excluded before linearization,
// while an unrelated branch composes normally.
func TestComposeSkipsInactiveClosure(t *testing.T) {
	nodes := []Node{
		{ID: "A", Kind: KindInput, Data: NodeData{Active: boolPtr(false)}},
		{ID: "D", Kind: KindPreview}, // only reachable through A
		{ID: "B", Kind: KindInput},
		{ID: "C", Kind: KindPreview}, // reachable only through B
	}
	edges := []Edge{
		{ID: "e1", Source: "A", Target: "D"},
		{ID: "e2", Source: "B", Target: "C"},
	}
	got := idsOf(NewComposer().Compose(nodes, edges))
	for _, id := range got {
		if id == "A" || id == "D" {
			t.Fatalf("inactive closure member %q should not appear in composed sequence: %v", id, got)
		}
	}
	foundC := false
	for _, id := range got {
		if id == "C" {
			foundC = true
		}
	}
	if !foundC {
		t.Fatalf("node C should still be composed: %v", got)
	}
}

func TestComposeIdempotent(t *testing.T) {
	nodes := []Node{
		{ID: "A", Kind: KindCLI},
		{ID: "B", Kind: KindCLI},
	}
	edges := []Edge{{ID: "e1", Source: "A", Target: "B"}}
	first := idsOf(NewComposer().Compose(nodes, edges))
	second := idsOf(NewComposer().Compose(nodes, edges))
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("run 1 %v != run 2 %v", first, second)
		}
	}
}
