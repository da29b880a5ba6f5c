// Command workflow-gateway is the HTTP/WebSocket front door implementing
// spec.md §6's External Interfaces: an execute_workflow/abort_workflow/
// node_approved inbound control channel over one WebSocket connection per
// run, and the execution_started/.../execution_completed progress sink
// flowing back out over the same connection.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/PriNova/cody-sub000/workflow"
	"github.com/PriNova/cody-sub000/workflow/approval"
	"github.com/PriNova/cody-sub000/workflow/emit"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inboundMessage is the union of every shape spec.md §6's inbound control
// channel accepts; only the fields relevant to Type are populated.
type inboundMessage struct {
	Type            string          `json:"type"`
	Nodes           json.RawMessage `json:"nodes,omitempty"`
	Edges           json.RawMessage `json:"edges,omitempty"`
	NodeID          string          `json:"nodeId,omitempty"`
	ModifiedCommand string          `json:"modifiedCommand,omitempty"`
}

// outboundMessage mirrors spec.md §6's progress-sink event shapes onto one
// flat JSON envelope.
type outboundMessage struct {
	Type   string `json:"type"`
	NodeID string `json:"nodeId,omitempty"`
	Status string `json:"status,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// connEmitter adapts emit.Emitter to push every Event out over one
// WebSocket connection. A mutex guards the connection because gorilla's
// Conn forbids concurrent writers: the driver's own Emit calls are already
// serialized by Execute's single-goroutine walk, but the socket handler's
// error replies can be written while a run is emitting, and they take the
// same mutex.
type connEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connEmitter) Emit(ev emit.Event) {
	msg := outboundMessage{Type: string(ev.Type), NodeID: ev.NodeID}
	switch ev.Type {
	case emit.NodeExecutionEvent:
		msg.Status = string(ev.Status)
		msg.Result = ev.Result
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
	case emit.TokenCount:
		msg.Count = ev.Count
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(msg); err != nil {
		log.Printf("workflow-gateway: write failed: %v", err)
	}
}

func (w *connEmitter) EmitBatch(_ context.Context, events []emit.Event) error {
	for _, ev := range events {
		w.Emit(ev)
	}
	return nil
}

func (w *connEmitter) Flush(context.Context) error { return nil }

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("workflow-gateway: .env load: %v", err)
	}

	port := os.Getenv("WORKFLOW_GATEWAY_PORT")
	if port == "" {
		port = "8080"
	}

	router := gin.Default()
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ws", handleWorkflowSocket)

	log.Printf("workflow-gateway listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// handleWorkflowSocket serves one WebSocket connection for its whole
// lifetime: one Engine, one approval.Channel, and at most one in-flight run
// at a time (a second execute_workflow before the first completes would
// race the Engine's single Persistent Shell, so the driver's own
// strictly-sequential model is preserved per connection, not just per run).
func handleWorkflowSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	emitter := &connEmitter{conn: conn}
	approvalHandler := approval.NewChannel()
	engine, err := workflow.NewEngine(
		workflow.WithEmitter(emitter),
		workflow.WithApprovalHandler(approvalHandler),
	)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Error: err.Error()})
		return
	}
	defer engine.Dispose()

	var mu sync.Mutex
	var cancel context.CancelFunc
	running := false
	reply := func(m outboundMessage) {
		emitter.mu.Lock()
		defer emitter.mu.Unlock()
		_ = conn.WriteJSON(m)
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "execute_workflow":
			nodes, edges, err := decodeWorkflow(msg.Nodes, msg.Edges)
			if err != nil {
				reply(outboundMessage{Type: "error", Error: err.Error()})
				continue
			}
			mu.Lock()
			if running {
				mu.Unlock()
				reply(outboundMessage{Type: "error", Error: "a workflow is already running"})
				continue
			}
			ctx, cancelFn := context.WithCancel(context.Background())
			running = true
			cancel = cancelFn
			mu.Unlock()
			runID := uuid.NewString()
			go func() {
				defer func() { mu.Lock(); running = false; mu.Unlock() }()
				if err := engine.Execute(ctx, runID, nodes, edges); err != nil {
					log.Printf("workflow-gateway: run %s ended: %v", runID, err)
				}
			}()

		case "abort_workflow":
			mu.Lock()
			if cancel != nil {
				cancel()
			}
			mu.Unlock()

		case "node_approved":
			approvalHandler.Approve(approval.Decision{ModifiedCommand: msg.ModifiedCommand})

		default:
			reply(outboundMessage{Type: "error", Error: "unknown message type: " + msg.Type})
		}
	}
}

func decodeWorkflow(rawNodes, rawEdges json.RawMessage) ([]workflow.Node, []workflow.Edge, error) {
	var nodes []workflow.Node
	if err := json.Unmarshal(rawNodes, &nodes); err != nil {
		return nil, nil, err
	}
	var edges []workflow.Edge
	if err := json.Unmarshal(rawEdges, &edges); err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}
