// Package telemetry holds the Prometheus instruments recorded across the
// recommendation pipeline.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry groups the pipeline metrics. A nil *Telemetry is valid and
// records nothing, so callers never need to branch on whether monitoring is
// enabled.
type Telemetry struct {
	runs           *prometheus.CounterVec
	stageDurations *prometheus.HistogramVec
	toolCalls      *prometheus.CounterVec
	llmRequests    *prometheus.CounterVec
}

// New registers the pipeline metrics on the given registerer. Tests pass
// their own registry to stay isolated from the default one.
func New(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripagent_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		stageDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripagent_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripagent_tool_calls_total",
			Help: "Tool invocations by tool and status.",
		}, []string{"tool", "status"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripagent_llm_requests_total",
			Help: "Generation calls by duty and outcome.",
		}, []string{"duty", "outcome"}),
	}
	reg.MustRegister(t.runs, t.stageDurations, t.toolCalls, t.llmRequests)
	return t
}

// RecordRun counts one completed pipeline run.
func (t *Telemetry) RecordRun(outcome string) {
	if t == nil {
		return
	}
	t.runs.WithLabelValues(outcome).Inc()
}

// RecordStage records one stage duration.
func (t *Telemetry) RecordStage(stage string, d time.Duration) {
	if t == nil {
		return
	}
	t.stageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordToolCall counts one tool invocation.
func (t *Telemetry) RecordToolCall(tool, status string) {
	if t == nil {
		return
	}
	t.toolCalls.WithLabelValues(tool, status).Inc()
}

// RecordLLMRequest counts one generation call.
func (t *Telemetry) RecordLLMRequest(duty, outcome string) {
	if t == nil {
		return
	}
	t.llmRequests.WithLabelValues(duty, outcome).Inc()
}
