// Package metrics provides Prometheus-compatible instrumentation for
// workflow execution, namespaced "workflow_".
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes:
//
//   - nodes_active (gauge): nodes currently executing. Labels: run_id.
//     Since execution is strictly sequential across nodes (spec.md §5), this
//     is always 0 or 1, but the gauge still lets an operator tell "is a run
//     stuck" from "is a run idle" at a glance.
//   - node_duration_seconds (histogram): per-node wall time. Labels:
//     node_kind, status.
//   - nodes_total (counter): completed node executions. Labels: node_kind,
//     status (completed|error|interrupted).
//   - llm_response_chars_total (counter): accumulated streamed response size, in
//     characters. Labels: model.
//   - shell_respawns_total (counter): Persistent Shell kill+respawn events,
//     labeled by reason (timeout|cancel).
type Metrics struct {
	nodesActive   *prometheus.GaugeVec
	nodeDuration  *prometheus.HistogramVec
	nodesTotal    *prometheus.CounterVec
	llmTokens     *prometheus.CounterVec
	shellRespawns *prometheus.CounterVec
}

// New registers the metric family with reg and returns a Metrics handle.
// Pass prometheus.DefaultRegisterer to expose via the global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		nodesActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workflow_nodes_active",
			Help: "Number of nodes currently executing, per run.",
		}, []string{"run_id"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workflow_node_duration_seconds",
			Help:    "Node executor wall-clock duration.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
		}, []string{"node_kind", "status"}),
		nodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_nodes_total",
			Help: "Completed node executions, by kind and terminal status.",
		}, []string{"node_kind", "status"}),
		llmTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_llm_response_chars_total",
			Help: "Accumulated streamed LLM response size, in characters.",
		}, []string{"model"}),
		shellRespawns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_shell_respawns_total",
			Help: "Persistent Shell kill+respawn events.",
		}, []string{"reason"}),
	}
}

// NodeStarted records that a node began executing in runID.
func (m *Metrics) NodeStarted(runID string) {
	if m == nil {
		return
	}
	m.nodesActive.WithLabelValues(runID).Inc()
}

// NodeFinished records a node's completion: wall time, kind, and terminal
// status (completed|error|interrupted).
func (m *Metrics) NodeFinished(runID, nodeKind, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.nodesActive.WithLabelValues(runID).Dec()
	m.nodeDuration.WithLabelValues(nodeKind, status).Observe(dur.Seconds())
	m.nodesTotal.WithLabelValues(nodeKind, status).Inc()
}

// LLMResponseChars records the final accumulated size of a streamed LLM
// response.
func (m *Metrics) LLMResponseChars(model string, chars int) {
	if m == nil {
		return
	}
	m.llmTokens.WithLabelValues(model).Add(float64(chars))
}

// ShellRespawned records a Persistent Shell kill+respawn, labeled by the
// reason ("timeout" or "cancel").
func (m *Metrics) ShellRespawned(reason string) {
	if m == nil {
		return
	}
	m.shellRespawns.WithLabelValues(reason).Inc()
}
