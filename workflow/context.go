package workflow

import "strings"

// LoopState tracks the progress of one LOOP_START frame. Component B
// unrolls loops at composition time (spec.md §9 Design Notes: "this spec
// chooses unrolling at composition time as authoritative"); LoopState exists
// so the LOOP_START executor (§4.F.7) can report which unrolled occurrence
// it is currently producing, and so INPUT nodes templating `${loopVariable}`
// see the right iteration index.
type LoopState struct {
	CurrentIteration int
	MaxIterations    int
	Variable         string
}

// CLIMetadata is the per-node bookkeeping the CLI executor (§4.F.1) writes
// so a downstream IF_ELSE node can make a CLI-driven routing decision.
type CLIMetadata struct {
	ExitCode string
}

// ExecutionContext is the process-wide state for one run of Execute
// (Component D). It is created at the start of a run, mutated monotonically
// by the Driver, and discarded at completion — spec.md §3 Lifecycles.
type ExecutionContext struct {
	nodeIndex map[string]Node
	edges     *EdgeIndex

	nodeOutputs map[string]any // string | []string
	loopStates  map[string]*LoopState
	accumVals   map[string]string
	varVals     map[string]string
	cliMeta     map[string]CLIMetadata

	// ifelseSkipPaths maps an IF_ELSE node id to the set of node ids
	// pruned because its non-taken branch was skipped (§4.F.11).
	ifelseSkipPaths map[string]map[string]bool
}

// NewExecutionContext builds an ExecutionContext over nodes/edges. nodes is
// indexed by id; later entries with a duplicate id overwrite earlier ones,
// matching map semantics (workflow documents are expected to carry unique
// node ids per spec.md §3 invariants).
func NewExecutionContext(nodes []Node, edges []Edge) *ExecutionContext {
	ni := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		ni[n.ID] = n
	}
	return &ExecutionContext{
		nodeIndex:       ni,
		edges:           NewEdgeIndex(edges),
		nodeOutputs:     make(map[string]any),
		loopStates:      make(map[string]*LoopState),
		accumVals:       make(map[string]string),
		varVals:         make(map[string]string),
		cliMeta:         make(map[string]CLIMetadata),
		ifelseSkipPaths: make(map[string]map[string]bool),
	}
}

// Node looks up a node by id.
func (c *ExecutionContext) Node(id string) (Node, bool) {
	n, ok := c.nodeIndex[id]
	return n, ok
}

// Edges exposes the Edge Index (Component A) backing this context.
func (c *ExecutionContext) Edges() *EdgeIndex { return c.edges }

// Set stores nodeID's output (string or []string). Per spec.md §3,
// nodeOutputs is write-once per unrolled occurrence; unrolled loop
// iterations share one node identity, so re-execution inside a loop
// overwrites the prior write and downstream reads see the most recent one.
func (c *ExecutionContext) Set(nodeID string, result any) {
	c.nodeOutputs[nodeID] = result
}

// Get returns the raw stored output for nodeID, if any.
func (c *ExecutionContext) Get(nodeID string) (any, bool) {
	v, ok := c.nodeOutputs[nodeID]
	return v, ok
}

// normalizeOutput renders a stored node output (string or []string) as a
// single string: CRLF is normalized to LF, array outputs are joined with
// "\n", and the result is trimmed.
func normalizeOutput(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []string:
		s = strings.Join(t, "\n")
	default:
		s = ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// ParentOutputs returns the upstream outputs of nodeID in connection order,
// each normalized (CRLF→LF, array-joined, trimmed); missing entries (a
// parent that has not executed, or was skipped) become "" (Component D).
func (c *ExecutionContext) ParentOutputs(nodeID string) []string {
	edges := c.edges.ByTarget(nodeID)
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		v, ok := c.nodeOutputs[e.Source]
		if !ok {
			out = append(out, "")
			continue
		}
		out = append(out, normalizeOutput(v))
	}
	return out
}

// ParentOutputsByHandle returns, in connection order, the upstream outputs
// of only the edges into nodeID whose TargetHandle equals handle. Used by
// LOOP_START to split "main" inputs from "iterations-override" inputs
// (§4.F.7). CODY_OUTPUT does not use it: it separates SEARCH_CONTEXT
// parents by node kind (§4.F.6).
func (c *ExecutionContext) ParentOutputsByHandle(nodeID, handle string) []string {
	edges := c.edges.ByTarget(nodeID)
	var out []string
	for _, e := range edges {
		if e.TargetHandle != handle {
			continue
		}
		v, ok := c.nodeOutputs[e.Source]
		if !ok {
			out = append(out, "")
			continue
		}
		out = append(out, normalizeOutput(v))
	}
	return out
}

// LoopFrame returns the loop frame for a LOOP_START node id, or nil if it
// has not been initialized yet.
func (c *ExecutionContext) LoopFrame(nodeID string) *LoopState {
	return c.loopStates[nodeID]
}

// SetLoopFrame installs or replaces the loop frame for nodeID.
func (c *ExecutionContext) SetLoopFrame(nodeID string, state *LoopState) {
	c.loopStates[nodeID] = state
}

// Accumulator returns the current value of a named accumulator, defaulting
// to "" when undefined.
func (c *ExecutionContext) Accumulator(name string) string { return c.accumVals[name] }

// SetAccumulator stores value as the current value of accumulator name.
func (c *ExecutionContext) SetAccumulator(name, value string) { c.accumVals[name] = value }

// Variable returns the current value of a named variable, defaulting to ""
// when undefined.
func (c *ExecutionContext) Variable(name string) (string, bool) {
	v, ok := c.varVals[name]
	return v, ok
}

// SetVariable stores value as the current value of variable name. Only
// VARIABLE nodes call this; ACCUMULATOR nodes write through SetAccumulator
// into a separate map. When an accumulator and a variable share a name,
// Substitute's scope order (loop ≺ accumulator ≺ variable) makes the
// variable's value win, whichever of the two was written last.
func (c *ExecutionContext) SetVariable(name, value string) { c.varVals[name] = value }

// CLIMeta returns the last recorded exit-code metadata for a CLI node.
func (c *ExecutionContext) CLIMeta(nodeID string) (CLIMetadata, bool) {
	m, ok := c.cliMeta[nodeID]
	return m, ok
}

// SetCLIMeta records exit-code metadata for a CLI node.
func (c *ExecutionContext) SetCLIMeta(nodeID string, meta CLIMetadata) {
	c.cliMeta[nodeID] = meta
}

// AddSkip records that downNodeID must be silently skipped because it is
// only reachable through ifNodeID's non-taken branch (§4.F.11).
func (c *ExecutionContext) AddSkip(ifNodeID, downNodeID string) {
	set, ok := c.ifelseSkipPaths[ifNodeID]
	if !ok {
		set = make(map[string]bool)
		c.ifelseSkipPaths[ifNodeID] = set
	}
	set[downNodeID] = true
}

// IsSkipped reports whether nodeID has been pruned by any IF_ELSE decision
// made so far in this run.
func (c *ExecutionContext) IsSkipped(nodeID string) bool {
	for _, set := range c.ifelseSkipPaths {
		if set[nodeID] {
			return true
		}
	}
	return false
}
