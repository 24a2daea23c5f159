package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvm/tripagent/config"
	"github.com/tuanvm/tripagent/internal/capability"
	"github.com/tuanvm/tripagent/internal/llm"
	"github.com/tuanvm/tripagent/internal/telemetry"
)

// BrowseToolName is the registry name of the page-fetching tool the research
// stage dispatches through.
const BrowseToolName = "web_browse"

const synthesisTemperature = 0.2

// FallbackAnswer is returned when synthesis produces nothing usable.
const FallbackAnswer = "No suitable suggestions were found. Try raising the budget or adding more interests."

var orchestratorTracer trace.Tracer = otel.Tracer("tripagent/internal/agent")

// Orchestrator coordinates the recommendation pipeline: normalize, research,
// extract, score, synthesize. One instance serves all requests; per-request
// state lives in RunContext.
type Orchestrator struct {
	cfg        *config.Config
	logger     *log.Logger
	telemetry  *telemetry.Telemetry
	registry   *capability.Registry
	extraction llm.Provider
	synthesis  llm.Provider
	extractor  *Extractor
}

// NewOrchestrator wires the pipeline from configuration. The registry must
// already hold the browse tool.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tele *telemetry.Telemetry, registry *capability.Registry) (*Orchestrator, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}

	extractionCfg, err := cfg.LLM.Resolve(config.SlotExtraction)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	extraction, err := llm.NewProvider(extractionCfg)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: extraction provider: %w", err)
	}
	synthesisCfg, err := cfg.LLM.Resolve(config.SlotSynthesis)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	synthesis, err := llm.NewProvider(synthesisCfg)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: synthesis provider: %w", err)
	}

	extraction = meteredProvider{inner: extraction, tele: tele, duty: "extraction"}
	synthesis = meteredProvider{inner: synthesis, tele: tele, duty: "synthesis"}

	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		telemetry:  tele,
		registry:   registry,
		extraction: extraction,
		synthesis:  synthesis,
		extractor:  NewExtractor(extraction, log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags)),
	}, nil
}

// meteredProvider counts generation calls by duty and outcome.
type meteredProvider struct {
	inner llm.Provider
	tele  *telemetry.Telemetry
	duty  string
}

func (p meteredProvider) Chat(ctx context.Context, messages []llm.Message, temperature float64) (string, error) {
	text, err := p.inner.Chat(ctx, messages, temperature)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.tele.RecordLLMRequest(p.duty, outcome)
	return text, err
}

// Run executes the pipeline in buffered mode.
func (o *Orchestrator) Run(ctx context.Context, payload map[string]interface{}) (Result, error) {
	return o.run(ctx, payload, nil)
}

// RunStream executes the pipeline, emitting progress events to sink as they
// happen. The sink sees agent_start first and agent_done last on success.
func (o *Orchestrator) RunStream(ctx context.Context, payload map[string]interface{}, sink EventSink) (Result, error) {
	return o.run(ctx, payload, sink)
}

func (o *Orchestrator) run(ctx context.Context, payload map[string]interface{}, sink EventSink) (Result, error) {
	rc := &RunContext{
		TraceID:   uuid.New().String(),
		Request:   payload,
		Durations: map[string]time.Duration{},
		sink:      sink,
		started:   time.Now(),
	}

	ctx, span := orchestratorTracer.Start(ctx, "agent.run",
		trace.WithAttributes(attribute.String("trace.id", rc.TraceID)))
	defer span.End()

	rc.emit(EventAgentStart, map[string]interface{}{"agent": "trip_agent", "trace_id": rc.TraceID})

	o.stage(ctx, rc, "normalize", func(context.Context) error {
		rc.Normalized = NormalizeRequest(payload)
		return nil
	})

	if err := o.stage(ctx, rc, "research", func(ctx context.Context) error {
		return o.research(ctx, rc)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.telemetry.RecordRun("error")
		return Result{}, err
	}

	o.stage(ctx, rc, "extract", func(ctx context.Context) error {
		rc.Candidates = o.extractor.Extract(ctx, rc.Normalized, rc.Results)
		rc.note(fmt.Sprintf("extracted %d candidates", len(rc.Candidates)))
		return nil
	})

	o.stage(ctx, rc, "score", func(context.Context) error {
		rc.Scored = ScoreAndFilter(rc.Normalized, rc.Candidates)
		rc.note(fmt.Sprintf("candidate list size=%d for group_type=%s", len(rc.Scored), rc.Normalized.GroupType))
		return nil
	})

	o.stage(ctx, rc, "synthesize", func(ctx context.Context) error {
		rc.Answer = o.synthesize(ctx, rc.Normalized, rc.Scored)
		return nil
	})

	duration := time.Since(rc.started)
	rc.emit(EventAgentDone, map[string]interface{}{"agent": "trip_agent", "duration_ms": duration.Milliseconds()})
	o.telemetry.RecordRun("ok")
	o.logger.Printf("run %s completed in %v (%d recommendations)", rc.TraceID, duration, len(rc.Scored))
	span.SetStatus(codes.Ok, "completed")

	stageMS := make(map[string]int64, len(rc.Durations))
	for name, d := range rc.Durations {
		stageMS[name] = d.Milliseconds()
	}
	return Result{
		TraceID:         rc.TraceID,
		Normalized:      rc.Normalized,
		Recommendations: rc.Scored,
		ToolCalls:       rc.ToolCalls,
		Notes:           rc.Notes,
		StageDurations:  stageMS,
		Answer:          rc.Answer,
		DurationMS:      duration.Milliseconds(),
	}, nil
}

// stage runs one pipeline stage under its own span and records its duration.
func (o *Orchestrator) stage(ctx context.Context, rc *RunContext, name string, fn func(context.Context) error) error {
	ctx, span := orchestratorTracer.Start(ctx, "agent."+name)
	defer span.End()
	t0 := time.Now()
	err := fn(ctx)
	d := time.Since(t0)
	rc.Durations[name] = d
	o.telemetry.RecordStage(name, d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// research fans the search query out over every configured source through the
// browse tool. Tool failures degrade into error-status results; only a
// missing tool aborts the run.
func (o *Orchestrator) research(ctx context.Context, rc *RunContext) error {
	query := BuildSearchQuery(rc.Normalized, o.cfg.Sources.Region)
	instructions := fmt.Sprintf(
		"Find %s destinations and short highlights. Return concise titles and short text.",
		o.cfg.Sources.Region)

	for _, source := range o.cfg.Sources.Search {
		searchURL := source.URL + url.Values{"q": {query}}.Encode()
		rc.emit(EventToolCall, map[string]interface{}{"tool": BrowseToolName, "source": source.Name})

		raw, err := o.registry.Invoke(ctx, BrowseToolName, map[string]interface{}{
			"url":          searchURL,
			"instructions": instructions,
		})
		var result RawToolResult
		switch {
		case capability.IsUnknownTool(err):
			return err
		case err != nil:
			o.logger.Printf("run %s: browse %s failed: %v", rc.TraceID, source.Name, err)
			result = RawToolResult{Source: source.Name, Status: "error", Error: err.Error()}
		default:
			result = toolResult(source.Name, raw)
		}

		rc.Results = append(rc.Results, result)
		rc.ToolCalls = append(rc.ToolCalls, ToolInvocation{Tool: BrowseToolName, Source: source.Name, Status: result.Status})
		o.telemetry.RecordToolCall(BrowseToolName, result.Status)
		rc.emit(EventToolResult, map[string]interface{}{
			"tool":   BrowseToolName,
			"source": source.Name,
			"status": result.Status,
			"titles": len(result.Titles),
		})
	}
	return nil
}

// toolResult maps a browse tool payload into a RawToolResult.
func toolResult(source string, raw map[string]interface{}) RawToolResult {
	result := RawToolResult{Source: source, Status: "ok", Raw: raw}
	if s, ok := raw["status"].(string); ok && s != "" {
		result.Status = s
	}
	if items, ok := raw["titles"].([]interface{}); ok {
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				result.Titles = append(result.Titles, s)
			}
		}
	} else if titles, ok := raw["titles"].([]string); ok {
		result.Titles = append(result.Titles, titles...)
	}
	if s, ok := raw["text"].(string); ok {
		result.Text = s
	}
	if s, ok := raw["error"].(string); ok {
		result.Error = s
	}
	return result
}

// synthesize produces the narrative answer. With nothing to recommend, or on
// any generation failure or blank response, it yields the fixed fallback text.
func (o *Orchestrator) synthesize(ctx context.Context, nr NormalizedRequest, scored []ScoredCandidate) string {
	if len(scored) == 0 {
		return FallbackAnswer
	}
	nrJSON, _ := json.Marshal(nr)
	scoredJSON, _ := json.Marshal(scored)
	messages := []llm.Message{
		{Role: "system", Content: "You are a concise travel planner. Use short, practical suggestions."},
		{Role: "user", Content: fmt.Sprintf(
			"Suggest up to 3 destinations that fit the traveler. "+
				"Keep each to 1-2 sentences with a reason tied to budget and days. "+
				"No markdown, no JSON.\n"+
				"Traveler context: %s\nScored candidates: %s", nrJSON, scoredJSON)},
	}
	answer, err := o.synthesis.Chat(ctx, messages, synthesisTemperature)
	if err != nil {
		o.logger.Printf("synthesis failed: %v", err)
		return FallbackAnswer
	}
	if answer == "" {
		return FallbackAnswer
	}
	return answer
}
