package agent

import (
	"time"
)

// NormalizedRequest is the canonical form of a raw travel request. All numeric
// fields are clamped at construction and never mutated afterwards.
type NormalizedRequest struct {
	Days        int      `json:"days"`
	People      int      `json:"people"`
	Budget      float64  `json:"budget"` // total usable budget in USD
	BudgetScope string   `json:"budget_scope"`
	GroupType   string   `json:"group_type"`
	Interests   []string `json:"interests"`
	Origin      string   `json:"origin"`
	Season      string   `json:"season"`
	Query       string   `json:"query"`
}

// RawToolResult captures one browse/search tool invocation. Produced once per
// invocation and treated as immutable afterwards.
type RawToolResult struct {
	Source string                 `json:"source"`
	Status string                 `json:"status"`
	Titles []string               `json:"titles"`
	Text   string                 `json:"text"`
	Error  string                 `json:"error,omitempty"`
	Raw    map[string]interface{} `json:"-"`
}

// Candidate is a structured destination record before cost scoring. Records
// without a name are discarded before entering this type.
type Candidate struct {
	Name           string   `json:"name"`
	Region         string   `json:"region"`
	MinDays        int      `json:"min_days"`
	MaxDays        int      `json:"max_days"`
	BaseCostPerDay float64  `json:"base_cost_per_day"`
	BestFor        []string `json:"best_for"`
	Tags           []string `json:"tags"`
}

// ScoredCandidate is a Candidate with its estimated trip cost attached.
// Created only by the score/filter stage.
type ScoredCandidate struct {
	Candidate
	EstimatedCost float64 `json:"estimated_cost"`
}

// ToolInvocation is one entry in the per-run tool call log.
type ToolInvocation struct {
	Tool   string `json:"tool"`
	Source string `json:"source,omitempty"`
	Status string `json:"status"`
}

// EventSink receives named progress events in production order.
type EventSink func(event string, data map[string]interface{})

// Progress event names emitted during a run.
const (
	EventAgentStart = "agent_start"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventAgentNote  = "agent_note"
	EventAgentDone  = "agent_done"
	EventToken      = "token"
	EventFinal      = "final"
	EventError      = "error"
	EventDone       = "done"
)

// RunContext is the per-request mutable state shared across pipeline states.
// It is created at request entry, discarded at request exit, and never shared
// between requests.
type RunContext struct {
	TraceID    string
	Request    map[string]interface{}
	Normalized NormalizedRequest
	ToolCalls  []ToolInvocation
	Notes      []string
	Results    []RawToolResult
	Candidates []Candidate
	Scored     []ScoredCandidate
	Answer     string
	Durations  map[string]time.Duration

	sink    EventSink
	started time.Time
}

func (rc *RunContext) emit(event string, data map[string]interface{}) {
	if rc.sink != nil {
		rc.sink(event, data)
	}
}

func (rc *RunContext) note(text string) {
	rc.Notes = append(rc.Notes, text)
	rc.emit(EventAgentNote, map[string]interface{}{"note": text})
}

// Result is the aggregate outcome of one pipeline run.
type Result struct {
	TraceID         string            `json:"trace_id"`
	Normalized      NormalizedRequest `json:"normalized_request"`
	Recommendations []ScoredCandidate `json:"recommendations"`
	ToolCalls       []ToolInvocation  `json:"tool_calls"`
	Notes           []string          `json:"llm_notes"`
	StageDurations  map[string]int64  `json:"stage_durations_ms"`
	Answer          string            `json:"answer"`
	DurationMS      int64             `json:"duration_ms"`
}
