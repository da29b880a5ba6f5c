package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/gval"

	"github.com/PriNova/cody-sub000/workflow/approval"
	"github.com/PriNova/cody-sub000/workflow/chatsession"
	"github.com/PriNova/cody-sub000/workflow/emit"
	"github.com/PriNova/cody-sub000/workflow/metrics"
	"github.com/PriNova/cody-sub000/workflow/model"
	"github.com/PriNova/cody-sub000/workflow/retriever"
)

// maxLLMResponseChars bounds an LLM node's accumulated streamed text
// (spec.md §7).
const maxLLMResponseChars = 1_000_000

// searchContextJoiner separates formatted retrieval items (§4.F.5) and is
// what CODY_OUTPUT (§4.F.6) splits back apart.
const searchContextJoiner = "\n----\n"

// collaborators bundles every external dependency a node executor may need.
// An Engine owns one instance, assembled once from engineConfig in
// NewEngine; Execute refreshes accumulatorNames/variableNames at the start
// of each run and otherwise passes it down unchanged.
type collaborators struct {
	shell        *PersistentShell
	chatClient   model.ChatClient
	retriever    retriever.Retriever
	approval     approval.Handler
	chatSession  chatsession.Session
	tokenCounter TokenCounter
	denyList     []string
	emitter      emit.Emitter
	metrics      *metrics.Metrics
	costTracker  *CostTracker
	llmTimeout   time.Duration

	// accumulatorNames/variableNames are every distinct VariableName an
	// ACCUMULATOR/VARIABLE node declares anywhere in the composed sequence,
	// computed once by the driver so Substitute can tell "declared but
	// empty" apart from "not a variable reference at all" (spec.md §4.E).
	accumulatorNames []string
	variableNames    []string
}

// scopesFor builds the named-scope chain for substituting templates on
// behalf of node, given the loop variables currently in scope.
func (co *collaborators) scopesFor(ec *ExecutionContext, loopVars map[string]string) []VariableScope {
	return NamedScopes(ec, loopVars, co.accumulatorNames, co.variableNames)
}

// executeNode dispatches node to its kind-specific executor (spec.md §4.F).
// runID and seq are for events the executor itself emits mid-execution
// (pending_approval, token_count) — the driver emits running/completed/error
// around this call.
func executeNode(ctx context.Context, node Node, ec *ExecutionContext, co *collaborators, runID string, seq func() int, loopVars map[string]string) (any, error) {
	switch node.Kind {
	case KindCLI:
		return executeCLI(ctx, node, ec, co, runID, seq)
	case KindLLM:
		return executeLLM(ctx, node, ec, co, loopVars)
	case KindPreview, KindLoopEnd:
		return executePreviewLike(node, ec, co, runID, seq, loopVars)
	case KindInput:
		return executeInput(node, ec, co, loopVars)
	case KindSearchContext:
		return executeSearchContext(ctx, node, ec, co, loopVars)
	case KindCodyOutput:
		return executeCodyOutput(ctx, node, ec, co)
	case KindLoopStart:
		return executeLoopStart(node, ec)
	case KindAccumulator:
		return executeAccumulator(node, ec, co, loopVars)
	case KindVariable:
		return executeVariable(node, ec, co, loopVars)
	case KindIfElse:
		return executeIfElse(node, ec, co, loopVars)
	default:
		return nil, NewError(node.ID, CodeUnknownNodeKind, fmt.Sprintf("unknown node kind %q", node.Kind))
	}
}

// executeCLI implements spec.md §4.F.1.
func executeCLI(ctx context.Context, node Node, ec *ExecutionContext, co *collaborators, runID string, seq func() int) (string, error) {
	inputs := ec.ParentOutputs(node.ID)
	sanitized := make([]string, len(inputs))
	for i, v := range inputs {
		sanitized[i] = SanitizeShell(v)
	}
	command := strings.TrimSpace(Substitute(node.Data.Content, sanitized, co.scopesFor(ec, nil)...))
	if command == "" {
		return "", NewError(node.ID, CodeEmptyCommand, "command is empty after substitution")
	}
	command = expandHome(command)

	if node.Data.NeedsUserApproval {
		if co.emitter != nil {
			co.emitter.Emit(emit.Event{
				Type: emit.NodeExecutionEvent, RunID: runID, Seq: seq(), NodeID: node.ID,
				Status: emit.StatusPendingApproval, Result: command,
			})
		}
		if co.approval == nil {
			return "", NewError(node.ID, CodeShellFailure, "node requires approval but no approval handler is configured")
		}
		decision, err := co.approval.Await(ctx, node.ID)
		if err != nil {
			if ctx.Err() != nil {
				return "", Wrap(node.ID, CodeAborted, "approval wait aborted", ctx.Err())
			}
			return "", Wrap(node.ID, CodeShellFailure, "approval wait failed", err)
		}
		if decision.ModifiedCommand != "" {
			command = decision.ModifiedCommand
		}
	}

	if isDenied(command, co.denyList) {
		return "", NewError(node.ID, CodeDisallowedCommand, "Cody cannot execute this command")
	}

	result, err := co.shell.Run(ctx, command)
	if err != nil {
		return "", err
	}
	ec.SetCLIMeta(node.ID, CLIMetadata{ExitCode: result.ExitCode})
	if result.ExitCode != "0" && node.Data.ShouldAbort {
		return "", NewError(node.ID, CodeShellFailure, result.Output)
	}
	return result.Output, nil
}

// executeLLM implements spec.md §4.F.2.
func executeLLM(ctx context.Context, node Node, ec *ExecutionContext, co *collaborators, loopVars map[string]string) (string, error) {
	inputs := ec.ParentOutputs(node.ID)
	sanitized := make([]string, len(inputs))
	for i, v := range inputs {
		sanitized[i] = SanitizePrompt(v)
	}
	prompt := strings.TrimSpace(Substitute(node.Data.Content, sanitized, co.scopesFor(ec, loopVars)...))
	if prompt == "" {
		return "", NewError(node.ID, CodeEmptyPrompt, "prompt is empty after substitution")
	}
	if co.chatClient == nil {
		return "", NewError(node.ID, CodeLLMError, "no chat client configured")
	}

	prior := co.chatClient.GetTemperature()
	co.chatClient.SetTemperature(node.Data.Temperature)
	defer co.chatClient.SetTemperature(prior)

	stream, err := co.chatClient.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}})
	if err != nil {
		return "", Wrap(node.ID, CodeLLMError, "failed to start chat stream", err)
	}

	timeout := co.llmTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var accumulated string
	for {
		select {
		case <-ctx.Done():
			return "", Wrap(node.ID, CodeAborted, "llm call aborted", ctx.Err())
		case <-timer.C:
			return "", NewError(node.ID, CodeLLMTimeout, "llm call timed out")
		case ev, ok := <-stream:
			if !ok {
				return accumulated, nil
			}
			switch ev.Type {
			case model.EventChange:
				accumulated = ev.Text
				if len(accumulated) > maxLLMResponseChars {
					return "", Wrap(node.ID, CodeResponseTooLarge, "llm response exceeded maximum accumulated size", ErrMaxResponseSize)
				}
			case model.EventComplete:
				accumulated = ev.Text
				if co.metrics != nil {
					co.metrics.LLMResponseChars(node.Data.Model, len(accumulated))
				}
				if co.costTracker != nil && co.tokenCounter != nil {
					co.costTracker.RecordLLMCall(node.Data.Model, co.tokenCounter.Encode(prompt), co.tokenCounter.Encode(accumulated), node.ID)
				}
				return accumulated, nil
			case model.EventError:
				return "", Wrap(node.ID, CodeLLMError, "llm stream error", ev.Err)
			}
		}
	}
}

// executePreviewLike implements PREVIEW (§4.F.3) and LOOP_END (§4.F.8),
// which share the same behavior: echo the joined, substituted parent
// outputs and emit a token_count event.
func executePreviewLike(node Node, ec *ExecutionContext, co *collaborators, runID string, seq func() int, loopVars map[string]string) (string, error) {
	joined := strings.Join(ec.ParentOutputs(node.ID), "\n")
	trimmed := strings.TrimSpace(Substitute(joined, nil, co.scopesFor(ec, loopVars)...))
	if co.tokenCounter != nil && co.emitter != nil {
		count := co.tokenCounter.Encode(trimmed)
		co.emitter.Emit(emit.Event{Type: emit.TokenCount, RunID: runID, Seq: seq(), NodeID: node.ID, Count: count})
	}
	return trimmed, nil
}

// executeInput implements spec.md §4.F.4.
func executeInput(node Node, ec *ExecutionContext, co *collaborators, loopVars map[string]string) (string, error) {
	indexed := ec.ParentOutputs(node.ID)
	return strings.TrimSpace(Substitute(node.Data.Content, indexed, co.scopesFor(ec, loopVars)...)), nil
}

// executeSearchContext implements spec.md §4.F.5.
func executeSearchContext(ctx context.Context, node Node, ec *ExecutionContext, co *collaborators, loopVars map[string]string) (string, error) {
	indexed := ec.ParentOutputs(node.ID)
	query := strings.TrimSpace(Substitute(node.Data.Content, indexed, co.scopesFor(ec, loopVars)...))
	if co.retriever == nil {
		return "", nil
	}
	remote := node.Data.LocalRemote == "remote"
	items, err := co.retriever.Retrieve(ctx, query, remote)
	if err != nil {
		return "", Wrap(node.ID, CodeLLMError, "context retrieval failed", err)
	}
	if len(items) == 0 {
		return "", nil
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.URI + "\n" + item.Content
	}
	return strings.Join(parts, searchContextJoiner), nil
}

// executeCodyOutput implements spec.md §4.F.6.
func executeCodyOutput(ctx context.Context, node Node, ec *ExecutionContext, co *collaborators) (string, error) {
	var textParts []string
	var contextItems []chatsession.ContextItem
	for _, e := range ec.Edges().ByTarget(node.ID) {
		parent, ok := ec.Node(e.Source)
		if ok && parent.Kind == KindSearchContext {
			raw, _ := ec.Get(e.Source)
			contextItems = append(contextItems, splitSearchContext(normalizeOutput(raw))...)
			continue
		}
		if v, ok := ec.Get(e.Source); ok {
			textParts = append(textParts, normalizeOutput(v))
		}
	}
	text := strings.Join(textParts, "\n")
	if co.chatSession == nil {
		return "", NewError(node.ID, CodeLLMError, "no chat session configured")
	}
	sessionID, err := co.chatSession.Continue(ctx, text, contextItems)
	if err != nil {
		if ctx.Err() != nil {
			return "", Wrap(node.ID, CodeAborted, "chat session hand-off aborted", ctx.Err())
		}
		return "", Wrap(node.ID, CodeLLMError, "chat session hand-off failed", err)
	}
	return sessionID, nil
}

// splitSearchContext reverses the "<uri>\n<content>" joined-by-"\n----\n"
// format executeSearchContext produces.
func splitSearchContext(joined string) []chatsession.ContextItem {
	if joined == "" {
		return nil
	}
	chunks := strings.Split(joined, searchContextJoiner)
	items := make([]chatsession.ContextItem, 0, len(chunks))
	for _, chunk := range chunks {
		path, content, _ := strings.Cut(chunk, "\n")
		items = append(items, chatsession.ContextItem{Path: path, Content: content})
	}
	return items
}

// executeLoopStart implements spec.md §4.F.7.
func executeLoopStart(node Node, ec *ExecutionContext) (string, error) {
	mainInputs := ec.ParentOutputsByHandle(node.ID, "main")
	overrideInputs := ec.ParentOutputsByHandle(node.ID, "iterations-override")

	iterations := node.Data.Iterations
	for _, v := range overrideInputs {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			iterations = n
			break
		}
	}

	frame := ec.LoopFrame(node.ID)
	if frame == nil {
		frame = &LoopState{CurrentIteration: 0, MaxIterations: iterations, Variable: node.Data.LoopVariable}
	} else if frame.CurrentIteration < frame.MaxIterations-1 {
		frame.CurrentIteration++
	}
	ec.SetLoopFrame(node.ID, frame)

	return strings.Join(mainInputs, "\n"), nil
}

// executeAccumulator implements spec.md §4.F.9.
func executeAccumulator(node Node, ec *ExecutionContext, co *collaborators, loopVars map[string]string) (string, error) {
	indexed := ec.ParentOutputs(node.ID)
	inputValue := strings.TrimSpace(Substitute(node.Data.Content, indexed, co.scopesFor(ec, loopVars)...))

	name := node.Data.VariableName
	prior, ok := ec.accumVals[name]
	if !ok {
		prior = node.Data.InitialValue
	}
	newValue := prior + "\n" + inputValue
	ec.SetAccumulator(name, newValue)
	return newValue, nil
}

// executeVariable implements spec.md §4.F.10.
func executeVariable(node Node, ec *ExecutionContext, co *collaborators, loopVars map[string]string) (string, error) {
	indexed := ec.ParentOutputs(node.ID)
	inputValue := strings.TrimSpace(Substitute(node.Data.Content, indexed, co.scopesFor(ec, loopVars)...))
	ec.SetVariable(node.Data.VariableName, inputValue)
	return inputValue, nil
}

// executeIfElse implements spec.md §4.F.11.
func executeIfElse(node Node, ec *ExecutionContext, co *collaborators, loopVars map[string]string) (string, error) {
	var taken bool
	var result string

	cliDriven := false
	for _, e := range ec.Edges().ByTarget(node.ID) {
		parent, ok := ec.Node(e.Source)
		if !ok || parent.Kind != KindCLI {
			continue
		}
		meta, _ := ec.CLIMeta(e.Source)
		taken = meta.ExitCode == "0"
		if v, ok := ec.Get(e.Source); ok {
			result = normalizeOutput(v)
		}
		cliDriven = true
		break
	}

	if !cliDriven {
		indexed := ec.ParentOutputs(node.ID)
		cond := strings.TrimSpace(Substitute(node.Data.Content, indexed, co.scopesFor(ec, loopVars)...))
		t, err := evalIfElseExpression(cond)
		if err != nil {
			return "", Wrap(node.ID, CodeInvalidExpression, "invalid if/else expression", err)
		}
		taken = t
		result = cond
	}

	nonTakenHandle := "false"
	if !taken {
		nonTakenHandle = "true"
	}
	var skipRoots []string
	for _, e := range ec.Edges().BySource(node.ID) {
		if e.SourceHandle == nonTakenHandle {
			skipRoots = append(skipRoots, e.Target)
		}
	}
	for id := range downstreamClosure(skipRoots, ec.Edges()) {
		ec.AddSkip(node.ID, id)
	}

	return result, nil
}

// downstreamClosure returns every node transitively reachable from roots via
// forward edges, roots included.
func downstreamClosure(roots []string, idx *EdgeIndex) map[string]bool {
	visited := make(map[string]bool, len(roots))
	queue := append([]string(nil), roots...)
	for _, id := range roots {
		visited[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range idx.Children(id) {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return visited
}

// evalIfElseExpression parses cond as "LHS op RHS", whitespace-delimited,
// op in {===, !==} (spec.md §4.F.11), and evaluates the string comparison
// via gval so the semantics of equality are the library's, not a hand-rolled
// string==string check.
func evalIfElseExpression(cond string) (bool, error) {
	fields := strings.Fields(cond)
	if len(fields) != 3 {
		return false, fmt.Errorf("malformed if/else expression %q: expected \"LHS op RHS\"", cond)
	}
	lhs, op, rhs := fields[0], fields[1], fields[2]
	var gvalOp string
	switch op {
	case "===":
		gvalOp = "=="
	case "!==":
		gvalOp = "!="
	default:
		return false, fmt.Errorf("unsupported if/else operator %q", op)
	}
	expr := fmt.Sprintf("%q %s %q", lhs, gvalOp, rhs)
	value, err := gval.Evaluate(expr, nil)
	if err != nil {
		return false, err
	}
	b, _ := value.(bool)
	return b, nil
}
