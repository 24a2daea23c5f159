package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tuanvm/tripagent/config"
	"github.com/tuanvm/tripagent/internal/capability"
	"github.com/tuanvm/tripagent/internal/telemetry"
)

// chatStub serves the OpenAI-compatible wire shape, answering extraction
// prompts with a candidate list and everything else with a short narrative.
func chatStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		content := "Try Hanoi for street food and museums."
		if strings.Contains(string(body), "travel data extractor") {
			content = `[{"name":"Hanoi","min_days":2,"max_days":5,"base_cost_per_day":45}]`
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(llmURL string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			Providers: map[string]config.LLMProvider{
				"stub": {Type: "openai", APIKey: "test-key", BaseURL: llmURL, Model: "test-model"},
			},
			Routing: config.LLMRoutingConfig{Extraction: "stub", Synthesis: "stub", Fallback: "stub"},
		},
		Sources: config.SourcesConfig{
			Region: "Vietnam",
			Search: []config.SearchSource{
				{Name: "duckduckgo", URL: "https://duckduckgo.com/?"},
				{Name: "vietnamtourism", URL: "https://vietnamtourism.gov.vn/search?"},
			},
		},
	}
}

func browseStub(t *testing.T) capability.ToolCard {
	t.Helper()
	return capability.ToolCard{
		Name:        BrowseToolName,
		Description: "stub browse",
		Handler: func(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			if _, ok := args["url"].(string); !ok {
				t.Errorf("browse handler called without url: %v", args)
			}
			return map[string]interface{}{
				"status": "ok",
				"titles": []string{"Hanoi Old Quarter Highlights"},
				"text":   "Hanoi offers budget friendly food tours and lakeside walks.",
			}, nil
		},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, cards ...capability.ToolCard) *Orchestrator {
	t.Helper()
	registry, err := capability.NewRegistry(cards...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tele := telemetry.New(prometheus.NewRegistry())
	orch, err := NewOrchestrator(cfg, nil, tele, registry)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch
}

func TestOrchestratorRun(t *testing.T) {
	srv := chatStub(t)
	defer srv.Close()
	orch := newTestOrchestrator(t, testConfig(srv.URL), browseStub(t))

	result, err := orch.Run(context.Background(), map[string]interface{}{
		"days": float64(3), "budget": float64(500), "group_type": "couple",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TraceID == "" {
		t.Fatalf("expected trace id")
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Name != "Hanoi" {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
	if result.Recommendations[0].EstimatedCost != 135 {
		t.Fatalf("expected 3*1*45*1.0 = 135, got %v", result.Recommendations[0].EstimatedCost)
	}
	if result.Answer != "Try Hanoi for street food and museums." {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}
	if len(result.ToolCalls) != 2 {
		t.Fatalf("expected one tool call per source, got %+v", result.ToolCalls)
	}
	for _, stage := range []string{"normalize", "research", "extract", "score", "synthesize"} {
		if _, ok := result.StageDurations[stage]; !ok {
			t.Fatalf("missing stage duration %q", stage)
		}
	}
}

func TestOrchestratorRunStreamEventOrder(t *testing.T) {
	srv := chatStub(t)
	defer srv.Close()
	orch := newTestOrchestrator(t, testConfig(srv.URL), browseStub(t))

	var events []string
	_, err := orch.RunStream(context.Background(), map[string]interface{}{}, func(event string, _ map[string]interface{}) {
		events = append(events, event)
	})
	if err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	if len(events) < 4 {
		t.Fatalf("expected progress events, got %v", events)
	}
	if events[0] != EventAgentStart {
		t.Fatalf("expected agent_start first, got %v", events)
	}
	if events[len(events)-1] != EventAgentDone {
		t.Fatalf("expected agent_done last, got %v", events)
	}
	var toolCalls, toolResults int
	for _, ev := range events {
		switch ev {
		case EventToolCall:
			toolCalls++
		case EventToolResult:
			toolResults++
		}
	}
	if toolCalls != 2 || toolResults != 2 {
		t.Fatalf("expected paired tool events, got %d calls / %d results", toolCalls, toolResults)
	}
}

func TestOrchestratorBrowseFailureDegrades(t *testing.T) {
	srv := chatStub(t)
	defer srv.Close()
	failing := capability.ToolCard{
		Name:        BrowseToolName,
		Description: "always fails",
		Handler: func(context.Context, map[string]interface{}) (map[string]interface{}, error) {
			return nil, io.ErrUnexpectedEOF
		},
	}
	orch := newTestOrchestrator(t, testConfig(srv.URL), failing)

	result, err := orch.Run(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("tool failures must not abort the run: %v", err)
	}
	for _, call := range result.ToolCalls {
		if call.Status != "error" {
			t.Fatalf("expected error status, got %+v", call)
		}
	}
	// No usable text means no candidates, so the fixed narrative applies.
	if result.Answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", result.Answer)
	}
}

func TestOrchestratorUnknownToolAborts(t *testing.T) {
	srv := chatStub(t)
	defer srv.Close()
	orch := newTestOrchestrator(t, testConfig(srv.URL), capability.FamilyBudgetBufferTool())

	_, err := orch.Run(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatalf("expected error for missing browse tool")
	}
	if !capability.IsUnknownTool(err) {
		t.Fatalf("expected UnknownToolError, got %v", err)
	}
}
