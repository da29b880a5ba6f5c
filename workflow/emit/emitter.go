package emit

import "context"

// Emitter receives the progress-sink events a workflow run produces.
//
// Implementations should be non-blocking and safe to call from the driver's
// single goroutine repeatedly over the lifetime of a run; Emit must not
// panic or block on a slow backend.
type Emitter interface {
	// Emit sends a single event. Implementations that need batching or
	// async delivery should buffer internally rather than block the
	// driver.
	Emit(event Event)

	// EmitBatch sends multiple events, preserving order. The driver
	// itself emits one event at a time through Emit and does not call
	// EmitBatch.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered.
	// Execute does not call it.
	Flush(ctx context.Context) error
}
