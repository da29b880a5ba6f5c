package workflow

// Engine assembles the Composer and the node-executor collaborators into a
// single entry point: NewEngine(opts...) once, then Execute per run.
type Engine struct {
	composer *Composer
	co       *collaborators
}

// NewEngine builds an Engine from opts (see options.go). A fresh
// PersistentShell is created and owned by the returned Engine; call
// Dispose when the Engine will no longer run workflows.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return &Engine{
		composer: NewComposer(),
		co: &collaborators{
			shell:        NewPersistentShell(cfg.shellPath, cfg.workDir, cfg.shellTimeout, cfg.metrics),
			chatClient:   cfg.chatClient,
			retriever:    cfg.retriever,
			approval:     cfg.approval,
			chatSession:  cfg.chatSession,
			tokenCounter: cfg.tokenCounter,
			denyList:     cfg.denyList,
			emitter:      cfg.emitter,
			metrics:      cfg.metrics,
			costTracker:  cfg.costTracker,
			llmTimeout:   cfg.llmTimeout,
		},
	}, nil
}

// Dispose kills the Engine's Persistent Shell. Safe to call even if no
// workflow ever ran.
func (e *Engine) Dispose() {
	e.co.shell.Dispose()
}

// declaredNames collects the distinct VariableName values authored on
// ACCUMULATOR and VARIABLE nodes, in first-seen order — the set Substitute
// needs to tell "a declared name with no value yet" apart from "not a
// variable reference at all" (spec.md §4.E, §9).
func declaredNames(nodes []Node) (accumulatorNames, variableNames []string) {
	seenAccum := make(map[string]bool)
	seenVars := make(map[string]bool)
	for _, n := range nodes {
		switch n.Kind {
		case KindAccumulator:
			if !seenAccum[n.Data.VariableName] {
				seenAccum[n.Data.VariableName] = true
				accumulatorNames = append(accumulatorNames, n.Data.VariableName)
			}
		case KindVariable:
			if !seenVars[n.Data.VariableName] {
				seenVars[n.Data.VariableName] = true
				variableNames = append(variableNames, n.Data.VariableName)
			}
		}
	}
	return
}
