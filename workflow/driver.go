package workflow

import (
	"context"
	"strconv"
	"time"

	"github.com/PriNova/cody-sub000/workflow/emit"
)

// loopFrame tracks one currently-open LOOP_START occurrence while the
// driver walks the composed sequence, so nodes inside the loop body see the
// right `${loopVariable}` value (spec.md §4.F.7, §9: unrolled iterations
// are distinguished purely by position in the sequence, not by re-entering
// the composer).
type loopFrame struct {
	variable  string
	iteration int
}

// Execute composes (nodes, edges), then walks the resulting sequence in
// order, dispatching each node to its executor and reporting a monotonic
// event stream to the Engine's configured Emitter (spec.md §4.G). runID
// tags every event emitted during this call.
//
// Execute returns the first node error encountered (after disposing the
// Persistent Shell and emitting execution_completed); a nil return means
// every node in the sequence ran to completion or was legitimately skipped.
func (e *Engine) Execute(ctx context.Context, runID string, nodes []Node, edges []Edge) error {
	sequence := e.composer.Compose(nodes, edges)
	e.co.accumulatorNames, e.co.variableNames = declaredNames(sequence)

	ec := NewExecutionContext(sequence, edges)
	inactive := inactiveClosure(nodes, edges)

	seq := 0
	nextSeq := func() int { seq++; return seq }
	emitEvent := func(ev emit.Event) {
		if e.co.emitter == nil {
			return
		}
		ev.RunID = runID
		ev.Seq = nextSeq()
		e.co.emitter.Emit(ev)
	}

	emitEvent(emit.Event{Type: emit.ExecutionStarted})

	var loopStack []loopFrame
	for _, node := range sequence {
		if ec.IsSkipped(node.ID) || inactive[node.ID] {
			continue
		}

		loopVars := make(map[string]string, len(loopStack))
		for _, f := range loopStack {
			if f.variable != "" {
				loopVars[f.variable] = strconv.Itoa(f.iteration)
			}
		}

		emitEvent(emit.Event{Type: emit.NodeExecutionEvent, NodeID: node.ID, Status: emit.StatusRunning})
		if e.co.metrics != nil {
			e.co.metrics.NodeStarted(runID)
		}
		start := time.Now()

		result, err := executeNode(ctx, node, ec, e.co, runID, nextSeq, loopVars)

		if node.Kind == KindLoopStart {
			frame := ec.LoopFrame(node.ID)
			iteration := 0
			if frame != nil {
				iteration = frame.CurrentIteration
			}
			loopStack = append(loopStack, loopFrame{variable: node.Data.LoopVariable, iteration: iteration})
		}

		if err != nil {
			status := emit.StatusError
			if IsAborted(err) {
				status = emit.StatusInterrupted
			}
			if e.co.metrics != nil {
				e.co.metrics.NodeFinished(runID, string(node.Kind), string(status), time.Since(start))
			}
			emitEvent(emit.Event{Type: emit.NodeExecutionEvent, NodeID: node.ID, Status: status, Err: err})
			e.co.shell.Dispose()
			emitEvent(emit.Event{Type: emit.ExecutionCompleted})
			return err
		}

		ec.Set(node.ID, result)
		if e.co.metrics != nil {
			e.co.metrics.NodeFinished(runID, string(node.Kind), string(emit.StatusCompleted), time.Since(start))
		}
		emitEvent(emit.Event{Type: emit.NodeExecutionEvent, NodeID: node.ID, Status: emit.StatusCompleted, Result: result})

		if node.Kind == KindLoopEnd && len(loopStack) > 0 {
			loopStack = loopStack[:len(loopStack)-1]
		}
	}

	emitEvent(emit.Event{Type: emit.ExecutionCompleted})
	return nil
}
