package workflow

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing is a model's per-million-token cost, in USD.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultModelPricing is a static snapshot of per-provider pricing, used when
// a CostTracker isn't given an override via SetCustomPricing. Unlisted
// models cost $0 — tracked but not priced.
var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                 {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-2024-08-06":      {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":            {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":            {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-4-turbo-2024-04-09": {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-3.5-turbo":          {InputPer1M: 0.50, OutputPer1M: 1.50},

	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3.5-sonnet":          {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-opus":              {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-sonnet-20240229":   {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-sonnet":            {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	"claude-3-haiku":             {InputPer1M: 0.25, OutputPer1M: 1.25},

	"gemini-1.5-pro":      {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-pro-001":  {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":    {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.5-flash-001": {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.0-pro":      {InputPer1M: 0.50, OutputPer1M: 1.50},
}

// LLMCall is one recorded LLM node execution's token usage and cost.
type LLMCall struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
	NodeID       string
}

// CostTracker accumulates the $-cost of a workflow run's LLM node calls,
// attributed per model and per node — the usage-and-spend supplement
// SPEC_FULL.md §10 adds on top of the distilled spec's bare token_count
// events (which carry a count but no currency). An Engine only records to a
// CostTracker when one is configured via WithCostTracker; by default LLM
// calls aren't priced.
type CostTracker struct {
	RunID    string
	Currency string

	mu         sync.RWMutex
	pricing    map[string]ModelPricing
	calls      []LLMCall
	totalCost  float64
	modelCosts map[string]float64
	inTokens   int64
	outTokens  int64
}

// NewCostTracker returns a CostTracker seeded with defaultModelPricing.
func NewCostTracker(runID, currency string) *CostTracker {
	pricing := make(map[string]ModelPricing, len(defaultModelPricing))
	for k, v := range defaultModelPricing {
		pricing[k] = v
	}
	return &CostTracker{
		RunID:      runID,
		Currency:   currency,
		pricing:    pricing,
		modelCosts: make(map[string]float64),
	}
}

// RecordLLMCall prices and records one LLM node invocation.
func (ct *CostTracker) RecordLLMCall(model string, inputTokens, outputTokens int, nodeID string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := ct.pricing[model] // zero value if unknown: tracked at $0
	cost := (float64(inputTokens)/1_000_000.0)*pricing.InputPer1M +
		(float64(outputTokens)/1_000_000.0)*pricing.OutputPer1M

	ct.calls = append(ct.calls, LLMCall{
		Model: model, InputTokens: inputTokens, OutputTokens: outputTokens,
		CostUSD: cost, Timestamp: time.Now(), NodeID: nodeID,
	})
	ct.totalCost += cost
	ct.modelCosts[model] += cost
	ct.inTokens += int64(inputTokens)
	ct.outTokens += int64(outputTokens)
}

// TotalCost returns the cumulative cost across every recorded call.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.totalCost
}

// CostByModel returns a copy of the per-model cost breakdown.
func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	out := make(map[string]float64, len(ct.modelCosts))
	for m, c := range ct.modelCosts {
		out[m] = c
	}
	return out
}

// CallHistory returns a copy of every recorded call, in call order.
func (ct *CostTracker) CallHistory() []LLMCall {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	out := make([]LLMCall, len(ct.calls))
	copy(out, ct.calls)
	return out
}

// TokenUsage returns cumulative input/output token counts.
func (ct *CostTracker) TokenUsage() (inputTokens, outputTokens int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.inTokens, ct.outTokens
}

// SetCustomPricing overrides (or adds) a model's per-1M-token pricing.
func (ct *CostTracker) SetCustomPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return fmt.Sprintf("CostTracker{RunID: %s, Calls: %d, TotalCost: $%.4f %s}",
		ct.RunID, len(ct.calls), ct.totalCost, ct.Currency)
}
