package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes one line per event to an io.Writer, either as
// human-readable key=value text or as JSONL.
type LogEmitter struct {
	w        io.Writer
	jsonMode bool
}

// NewLogEmitter returns a LogEmitter writing to w (os.Stdout if nil).
func NewLogEmitter(w io.Writer, jsonMode bool) *LogEmitter {
	if w == nil {
		w = os.Stdout
	}
	return &LogEmitter{w: w, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	payload := struct {
		Type   EventType      `json:"type"`
		RunID  string         `json:"runID"`
		Seq    int            `json:"seq"`
		NodeID string         `json:"nodeID,omitempty"`
		Status NodeStatus     `json:"status,omitempty"`
		Result any            `json:"result,omitempty"`
		Err    string         `json:"error,omitempty"`
		Count  int            `json:"count,omitempty"`
		Meta   map[string]any `json:"meta,omitempty"`
	}{
		Type: event.Type, RunID: event.RunID, Seq: event.Seq, NodeID: event.NodeID,
		Status: event.Status, Result: event.Result, Count: event.Count, Meta: event.Meta,
	}
	if event.Err != nil {
		payload.Err = event.Err.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		_, _ = fmt.Fprintf(l.w, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.w, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.w, "[%s] run=%s seq=%d", event.Type, event.RunID, event.Seq)
	if event.NodeID != "" {
		_, _ = fmt.Fprintf(l.w, " node=%s", event.NodeID)
	}
	if event.Status != "" {
		_, _ = fmt.Fprintf(l.w, " status=%s", event.Status)
	}
	if event.Count != 0 {
		_, _ = fmt.Fprintf(l.w, " count=%d", event.Count)
	}
	if event.Err != nil {
		_, _ = fmt.Fprintf(l.w, " err=%q", event.Err.Error())
	}
	_, _ = fmt.Fprint(l.w, "\n")
}

func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		l.Emit(e)
	}
	return nil
}

func (l *LogEmitter) Flush(context.Context) error { return nil }
