package workflow

import "testing"

func TestCostTrackerRecordsKnownModelPricing(t *testing.T) {
	ct := NewCostTracker("run-1", "USD")
	ct.RecordLLMCall("gpt-4o-mini", 1_000_000, 1_000_000, "n1")

	want := 0.15 + 0.60
	if got := ct.TotalCost(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	in, out := ct.TokenUsage()
	if in != 1_000_000 || out != 1_000_000 {
		t.Errorf("got in=%d out=%d", in, out)
	}
}

func TestCostTrackerUnknownModelIsFree(t *testing.T) {
	ct := NewCostTracker("run-1", "USD")
	ct.RecordLLMCall("some-unlisted-model", 500, 500, "n1")
	if got := ct.TotalCost(); got != 0 {
		t.Errorf("expected unlisted model to cost 0, got %v", got)
	}
}

func TestCostTrackerCostByModelAndHistory(t *testing.T) {
	ct := NewCostTracker("run-1", "USD")
	ct.RecordLLMCall("gpt-4o", 1_000_000, 0, "n1")
	ct.RecordLLMCall("gpt-4o", 1_000_000, 0, "n2")

	byModel := ct.CostByModel()
	if got, want := byModel["gpt-4o"], 5.0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	history := ct.CallHistory()
	if len(history) != 2 {
		t.Fatalf("got %d calls, want 2", len(history))
	}
	if history[0].NodeID != "n1" || history[1].NodeID != "n2" {
		t.Errorf("calls out of order: %+v", history)
	}
}

func TestCostTrackerSetCustomPricingIsIsolatedPerInstance(t *testing.T) {
	ct1 := NewCostTracker("run-1", "USD")
	ct2 := NewCostTracker("run-2", "USD")

	ct1.SetCustomPricing("house-model", 1.0, 2.0)
	ct1.RecordLLMCall("house-model", 1_000_000, 1_000_000, "n1")
	ct2.RecordLLMCall("house-model", 1_000_000, 1_000_000, "n1")

	if got, want := ct1.TotalCost(), 3.0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := ct2.TotalCost(), 0.0; got != want {
		t.Errorf("ct2 should be unaffected by ct1.SetCustomPricing, got %v, want %v", got, want)
	}
}
