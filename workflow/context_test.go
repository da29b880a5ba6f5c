package workflow

import "testing"

func TestParentOutputsConnectionOrderAndMissing(t *testing.T) {
	edges := []Edge{
		{ID: "e2", Source: "p2", Target: "t"},
		{ID: "e1", Source: "p1", Target: "t"},
	}
	ec := NewExecutionContext(nil, edges)
	ec.Set("p2", "second")
	// p1 never executed: its slot should come back as "".
	got := ec.ParentOutputs("t")
	want := []string{"second", ""}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestParentOutputsByHandle(t *testing.T) {
	edges := []Edge{
		{ID: "e1", Source: "p1", Target: "loop", TargetHandle: "main"},
		{ID: "e2", Source: "p2", Target: "loop", TargetHandle: "iterations-override"},
	}
	ec := NewExecutionContext(nil, edges)
	ec.Set("p1", "body-input")
	ec.Set("p2", "5")

	main := ec.ParentOutputsByHandle("loop", "main")
	if len(main) != 1 || main[0] != "body-input" {
		t.Errorf("got %v", main)
	}
	override := ec.ParentOutputsByHandle("loop", "iterations-override")
	if len(override) != 1 || override[0] != "5" {
		t.Errorf("got %v", override)
	}
}

func TestNormalizeOutputJoinsAndTrims(t *testing.T) {
	ec := NewExecutionContext(nil, []Edge{{ID: "e1", Source: "p", Target: "t"}})
	ec.Set("p", []string{"a\r\n", " b "})
	got := ec.ParentOutputs("t")[0]
	want := "a\n\n b"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAccumulatorAndVariableStorage(t *testing.T) {
	ec := NewExecutionContext(nil, nil)
	if got := ec.Accumulator("missing"); got != "" {
		t.Errorf("expected empty default, got %q", got)
	}
	ec.SetAccumulator("s", "0")
	if got := ec.Accumulator("s"); got != "0" {
		t.Errorf("got %q", got)
	}

	if _, ok := ec.Variable("missing"); ok {
		t.Errorf("expected ok=false for an unset variable")
	}
	ec.SetVariable("status", "ready")
	v, ok := ec.Variable("status")
	if !ok || v != "ready" {
		t.Errorf("got (%q, %v)", v, ok)
	}
}

func TestSkipSetAcrossMultipleIfElseNodes(t *testing.T) {
	ec := NewExecutionContext(nil, nil)
	ec.AddSkip("if1", "x")
	ec.AddSkip("if2", "y")
	if !ec.IsSkipped("x") || !ec.IsSkipped("y") {
		t.Errorf("expected both x and y to be skipped")
	}
	if ec.IsSkipped("z") {
		t.Errorf("z was never skipped")
	}
}

func TestLoopFrameRoundTrip(t *testing.T) {
	ec := NewExecutionContext(nil, nil)
	if ec.LoopFrame("l1") != nil {
		t.Errorf("expected nil before first SetLoopFrame")
	}
	ec.SetLoopFrame("l1", &LoopState{CurrentIteration: 2, MaxIterations: 3, Variable: "i"})
	frame := ec.LoopFrame("l1")
	if frame == nil || frame.CurrentIteration != 2 {
		t.Errorf("got %+v", frame)
	}
}
