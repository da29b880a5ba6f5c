package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PriNova/cody-sub000/workflow/emit"
)

func newTestEngine(t *testing.T, buf *emit.BufferedEmitter) *Engine {
	t.Helper()
	engine, err := NewEngine(
		WithShellPath("bash"),
		WithShellTimeout(5*time.Second),
		WithEmitter(buf),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(engine.Dispose)
	return engine
}

// TestExecuteLinearScenario mirrors spec.md §8 scenario 1.
func TestExecuteLinearScenario(t *testing.T) {
	nodes := []Node{
		{ID: "A", Kind: KindCLI, Data: NodeData{Content: `echo "hello"`}},
		{ID: "B", Kind: KindCLI, Data: NodeData{Content: `echo "${1} world"`}},
		{ID: "C", Kind: KindPreview},
	}
	edges := []Edge{
		{ID: "e1", Source: "A", Target: "B"},
		{ID: "e2", Source: "B", Target: "C"},
	}
	buf := emit.NewBufferedEmitter()
	engine := newTestEngine(t, buf)

	if err := engine.Execute(context.Background(), "run-1", nodes, edges); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	history := buf.History("run-1")
	var completedResults []string
	for _, ev := range history {
		if ev.Type == emit.NodeExecutionEvent && ev.Status == emit.StatusCompleted {
			if s, ok := ev.Result.(string); ok {
				completedResults = append(completedResults, s)
			}
		}
	}
	want := []string{"hello", "hello world", "hello world"}
	if len(completedResults) != len(want) {
		t.Fatalf("got %v, want %v", completedResults, want)
	}
	for i := range want {
		if completedResults[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, completedResults[i], want[i])
		}
	}

	if history[0].Type != emit.ExecutionStarted {
		t.Errorf("first event should be execution_started, got %v", history[0].Type)
	}
	if history[len(history)-1].Type != emit.ExecutionCompleted {
		t.Errorf("last event should be execution_completed, got %v", history[len(history)-1].Type)
	}
}

// TestExecuteLoopScenario mirrors spec.md §8 scenario 3.
func TestExecuteLoopScenario(t *testing.T) {
	nodes := []Node{
		{ID: "L_START", Kind: KindLoopStart, Data: NodeData{Iterations: 2, LoopVariable: "i"}},
		{ID: "N", Kind: KindInput, Data: NodeData{Content: "${i}"}},
		{ID: "L_END", Kind: KindLoopEnd},
	}
	edges := []Edge{
		{ID: "e1", Source: "L_START", Target: "N"},
		{ID: "e2", Source: "N", Target: "L_END"},
	}
	buf := emit.NewBufferedEmitter()
	engine := newTestEngine(t, buf)

	if err := engine.Execute(context.Background(), "run-3", nodes, edges); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var nResults []string
	for _, ev := range buf.History("run-3") {
		if ev.Type == emit.NodeExecutionEvent && ev.NodeID == "N" && ev.Status == emit.StatusCompleted {
			if s, ok := ev.Result.(string); ok {
				nResults = append(nResults, s)
			}
		}
	}
	want := []string{"0", "1"}
	if len(nResults) != len(want) {
		t.Fatalf("got %v, want %v", nResults, want)
	}
	for i := range want {
		if nResults[i] != want[i] {
			t.Errorf("N result[%d] = %q, want %q", i, nResults[i], want[i])
		}
	}
}

// TestExecuteIfElseCLIScenario mirrors spec.md §8 scenario 4.
func TestExecuteIfElseCLIScenario(t *testing.T) {
	nodes := []Node{
		{ID: "CLI", Kind: KindCLI, Data: NodeData{Content: "true"}},
		{ID: "IF", Kind: KindIfElse},
		{ID: "T", Kind: KindInput, Data: NodeData{Content: "T"}},
		{ID: "F", Kind: KindInput, Data: NodeData{Content: "F"}},
	}
	edges := []Edge{
		{ID: "e1", Source: "CLI", Target: "IF"},
		{ID: "e2", Source: "IF", Target: "T", SourceHandle: "true"},
		{ID: "e3", Source: "IF", Target: "F", SourceHandle: "false"},
	}
	buf := emit.NewBufferedEmitter()
	engine := newTestEngine(t, buf)

	if err := engine.Execute(context.Background(), "run-4", nodes, edges); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	sawTRunning, sawFRunning, sawTCompleted := false, false, false
	for _, ev := range buf.History("run-4") {
		if ev.Type != emit.NodeExecutionEvent {
			continue
		}
		switch {
		case ev.NodeID == "T" && ev.Status == emit.StatusRunning:
			sawTRunning = true
		case ev.NodeID == "T" && ev.Status == emit.StatusCompleted:
			sawTCompleted = true
		case ev.NodeID == "F" && ev.Status == emit.StatusRunning:
			sawFRunning = true
		}
	}
	if !sawTRunning || !sawTCompleted {
		t.Errorf("expected T to run and complete")
	}
	if sawFRunning {
		t.Errorf("F should never have received a running event")
	}
}

// TestExecuteAccumulatorInLoopScenario mirrors spec.md §8 scenario 6.
func TestExecuteAccumulatorInLoopScenario(t *testing.T) {
	nodes := []Node{
		{ID: "L_START", Kind: KindLoopStart, Data: NodeData{Iterations: 3, LoopVariable: "i"}},
		{ID: "IN", Kind: KindInput, Data: NodeData{Content: "${i}"}},
		{ID: "ACC", Kind: KindAccumulator, Data: NodeData{Content: "${1}", VariableName: "s"}},
		{ID: "L_END", Kind: KindLoopEnd},
	}
	edges := []Edge{
		{ID: "e1", Source: "L_START", Target: "IN"},
		{ID: "e2", Source: "IN", Target: "ACC"},
		{ID: "e3", Source: "ACC", Target: "L_END"},
	}
	buf := emit.NewBufferedEmitter()
	engine := newTestEngine(t, buf)

	if err := engine.Execute(context.Background(), "run-6", nodes, edges); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var accResults []string
	for _, ev := range buf.History("run-6") {
		if ev.Type == emit.NodeExecutionEvent && ev.NodeID == "ACC" && ev.Status == emit.StatusCompleted {
			if s, ok := ev.Result.(string); ok {
				accResults = append(accResults, s)
			}
		}
	}
	if len(accResults) != 3 {
		t.Fatalf("got %v", accResults)
	}
	if got, want := accResults[len(accResults)-1], "\n0\n1\n2"; got != want {
		t.Errorf("final accumulator value = %q, want %q", got, want)
	}
}

// TestExecuteDisallowedCommandScenario mirrors spec.md §8 scenario 5.
func TestExecuteDisallowedCommandScenario(t *testing.T) {
	nodes := []Node{
		{ID: "CLI", Kind: KindCLI, Data: NodeData{Content: "rm -rf /"}},
		{ID: "AFTER", Kind: KindInput, Data: NodeData{Content: "should not run"}},
	}
	edges := []Edge{{ID: "e1", Source: "CLI", Target: "AFTER"}}
	buf := emit.NewBufferedEmitter()
	engine := newTestEngine(t, buf)

	err := engine.Execute(context.Background(), "run-5", nodes, edges)
	if err == nil || !strings.Contains(err.Error(), "Cody cannot execute this command") {
		t.Fatalf("got %v", err)
	}

	for _, ev := range buf.History("run-5") {
		if ev.NodeID == "AFTER" {
			t.Errorf("AFTER should never have received any event, got %+v", ev)
		}
	}
}
