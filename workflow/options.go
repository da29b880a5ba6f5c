package workflow

import (
	"time"

	"github.com/PriNova/cody-sub000/workflow/approval"
	"github.com/PriNova/cody-sub000/workflow/chatsession"
	"github.com/PriNova/cody-sub000/workflow/emit"
	"github.com/PriNova/cody-sub000/workflow/metrics"
	"github.com/PriNova/cody-sub000/workflow/model"
	"github.com/PriNova/cody-sub000/workflow/retriever"
)

// Option configures an Engine. Functional options keep Engine construction
// extensible without breaking existing callers as new collaborators are
// added.
type Option func(*engineConfig) error

// engineConfig collects options before NewEngine assembles the Engine.
type engineConfig struct {
	shellPath     string
	workDir       string
	llmTimeout    time.Duration
	shellTimeout  time.Duration
	denyList      []string
	emitter       emit.Emitter
	metrics       *metrics.Metrics
	chatClient    model.ChatClient
	retriever     retriever.Retriever
	approval      approval.Handler
	chatSession   chatsession.Session
	tokenCounter  TokenCounter
	costTracker   *CostTracker
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		shellPath:    defaultShellPath(),
		llmTimeout:   60 * time.Second,
		shellTimeout: 30 * time.Second,
		denyList:     append([]string(nil), defaultDenyList...),
		emitter:      emit.NewNullEmitter(),
		tokenCounter: WhitespaceTokenCounter{},
	}
}

// WithShellPath overrides the Persistent Shell's interpreter path (default:
// "bash", or "cmd.exe" on Windows).
func WithShellPath(path string) Option {
	return func(c *engineConfig) error { c.shellPath = path; return nil }
}

// WithWorkDir sets the Persistent Shell's working directory.
func WithWorkDir(dir string) Option {
	return func(c *engineConfig) error { c.workDir = dir; return nil }
}

// WithLLMTimeout overrides the LLM node's per-call timeout (default 60s,
// spec.md §4.F.2).
func WithLLMTimeout(d time.Duration) Option {
	return func(c *engineConfig) error { c.llmTimeout = d; return nil }
}

// WithShellTimeout overrides the Persistent Shell's per-command timeout
// (default 30s, spec.md §4.H).
func WithShellTimeout(d time.Duration) Option {
	return func(c *engineConfig) error { c.shellTimeout = d; return nil }
}

// WithDenyList replaces the CLI executor's deny-listed command heads
// (spec.md §4.F.1). Pass a superset of defaultDenyList to extend it rather
// than narrow the security policy.
func WithDenyList(words []string) Option {
	return func(c *engineConfig) error { c.denyList = words; return nil }
}

// WithEmitter sets the progress-sink the driver reports to (default:
// emit.NullEmitter).
func WithEmitter(e emit.Emitter) Option {
	return func(c *engineConfig) error { c.emitter = e; return nil }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *engineConfig) error { c.metrics = m; return nil }
}

// WithChatClient sets the LLM collaborator (required if the workflow
// contains any LLM node).
func WithChatClient(cc model.ChatClient) Option {
	return func(c *engineConfig) error { c.chatClient = cc; return nil }
}

// WithRetriever sets the SEARCH_CONTEXT collaborator.
func WithRetriever(r retriever.Retriever) Option {
	return func(c *engineConfig) error { c.retriever = r; return nil }
}

// WithApprovalHandler sets the collaborator a needsUserApproval CLI node
// suspends on.
func WithApprovalHandler(h approval.Handler) Option {
	return func(c *engineConfig) error { c.approval = h; return nil }
}

// WithChatSession sets the CODY_OUTPUT collaborator.
func WithChatSession(s chatsession.Session) Option {
	return func(c *engineConfig) error { c.chatSession = s; return nil }
}

// WithTokenCounter overrides the PREVIEW/LOOP_END token_count source
// (default: WhitespaceTokenCounter, a crude stand-in for a real tokenizer).
func WithTokenCounter(tc TokenCounter) Option {
	return func(c *engineConfig) error { c.tokenCounter = tc; return nil }
}

// WithCostTracker attaches a CostTracker that records every LLM node call's
// token usage and priced cost. Unset by default — LLM calls aren't priced
// unless a tracker is configured.
func WithCostTracker(ct *CostTracker) Option {
	return func(c *engineConfig) error { c.costTracker = ct; return nil }
}
