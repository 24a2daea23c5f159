package config

import "testing"

func TestSourcesNormalizeDefaults(t *testing.T) {
	s := SourcesConfig{}.Normalize()
	if s.Region != "Vietnam" {
		t.Fatalf("unexpected region default: %q", s.Region)
	}
	if s.Browse.Backend != "mcp" || s.Browse.MCPTool != "chrome_navigate" {
		t.Fatalf("unexpected browse defaults: %+v", s.Browse)
	}
	if s.Browse.Timeout <= 0 || s.Browse.MaxChars <= 0 {
		t.Fatalf("browse limits must default: %+v", s.Browse)
	}
	if len(s.Search) != 2 || s.Search[0].Name != "duckduckgo" || s.Search[1].Name != "vietnamtourism" {
		t.Fatalf("unexpected search defaults: %+v", s.Search)
	}
}

func TestSourcesNormalizeKeepsExplicitValues(t *testing.T) {
	s := SourcesConfig{
		Region: "Japan",
		Search: []SearchSource{{Name: "custom", URL: "https://example.com/?"}},
	}.Normalize()
	if s.Region != "Japan" || len(s.Search) != 1 || s.Search[0].Name != "custom" {
		t.Fatalf("explicit values must survive: %+v", s)
	}
}

func TestSourcesValidate(t *testing.T) {
	bad := SourcesConfig{Browse: BrowseConfig{Backend: "ftp"}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	missing := SourcesConfig{Search: []SearchSource{{Name: "", URL: "x"}}}
	if err := missing.Validate(); err == nil {
		t.Fatalf("expected error for nameless source")
	}
	ok := SourcesConfig{}.Normalize()
	if err := ok.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLLMValidate(t *testing.T) {
	empty := LLMConfig{}
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected error with no providers")
	}
	bad := LLMConfig{Providers: map[string]LLMProvider{"x": {Type: "mystery"}}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	ok := LLMConfig{Providers: map[string]LLMProvider{"x": {Type: "openai"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLLMResolve(t *testing.T) {
	cfg := LLMConfig{
		Providers: map[string]LLMProvider{
			"fast": {Type: "openai", Model: "fast-model"},
			"big":  {Type: "anthropic", Model: "big-model"},
		},
		Routing: LLMRoutingConfig{Extraction: "fast", Synthesis: "big", Fallback: "fast"},
	}
	p, err := cfg.Resolve(SlotExtraction)
	if err != nil || p.Model != "fast-model" {
		t.Fatalf("extraction slot: %+v %v", p, err)
	}
	p, err = cfg.Resolve(SlotSynthesis)
	if err != nil || p.Model != "big-model" {
		t.Fatalf("synthesis slot: %+v %v", p, err)
	}

	// Unrouted slot falls back to the fallback provider.
	cfg.Routing.Synthesis = "missing"
	p, err = cfg.Resolve(SlotSynthesis)
	if err != nil || p.Model != "fast-model" {
		t.Fatalf("fallback resolution: %+v %v", p, err)
	}
}

func TestLLMResolveNoProviders(t *testing.T) {
	if _, err := (LLMConfig{}).Resolve(SlotExtraction); err == nil {
		t.Fatalf("expected error with no providers")
	}
}

func TestEurekaNormalize(t *testing.T) {
	e := EurekaConfig{ServerURL: "http://registry:8761/"}.Normalize()
	if e.ServerURL != "http://registry:8761" {
		t.Fatalf("trailing slash must be stripped: %q", e.ServerURL)
	}
	if e.AppName != "TRIPAGENT" {
		t.Fatalf("unexpected app name default: %q", e.AppName)
	}
}
