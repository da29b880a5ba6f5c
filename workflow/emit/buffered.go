package emit

import (
	"context"
	"sync"
)

// BufferedEmitter stores every event in memory, grouped by RunID, and
// supports the spec's §10 supplemented "replay-style execution history"
// feature: a caller can fetch the full event trace of a run after (or
// during) execution for display or debugging.
//
// It does not implement deterministic checkpoint/replay (re-entering a run
// from a stored state) — spec.md's Non-goals rule out persistence across
// restarts, so this is an in-memory trace only, not a resume mechanism.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewBufferedEmitter returns an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range events {
		b.events[e.RunID] = append(b.events[e.RunID], e)
	}
	return nil
}

func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of the events recorded for runID, in emission
// order. Returns an empty slice (never nil) if runID has no events.
func (b *BufferedEmitter) History(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[runID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Clear discards events for runID, or every run if runID is "".
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
