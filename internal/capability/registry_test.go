package capability

import (
	"context"
	"fmt"
	"testing"
)

func echoTool(name string) ToolCard {
	return ToolCard{
		Name:        name,
		Description: name + " test tool",
		Handler: func(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"tool": name, "args": args}, nil
		},
	}
}

func TestNewRegistryRejectsInvalidCard(t *testing.T) {
	if _, err := NewRegistry(ToolCard{Name: ""}); err == nil {
		t.Fatalf("expected validation failure for missing name")
	}
	if _, err := NewRegistry(ToolCard{Name: "no_handler"}); err == nil {
		t.Fatalf("expected validation failure for missing handler")
	}
}

func TestInvokeDispatchesToHandler(t *testing.T) {
	reg, err := NewRegistry(echoTool("web_browse"))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	out, err := reg.Invoke(context.Background(), "web_browse", map[string]interface{}{"url": "https://example.com"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["tool"] != "web_browse" {
		t.Fatalf("expected handler result, got %v", out)
	}
}

func TestInvokeUnknownToolReturnsTypedError(t *testing.T) {
	reg, err := NewRegistry(echoTool("web_browse"))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	_, err = reg.Invoke(context.Background(), "nope", nil)
	if err == nil {
		t.Fatalf("expected error for unknown tool")
	}
	if !IsUnknownTool(err) {
		t.Fatalf("expected UnknownToolError, got %T", err)
	}
	wrapped := fmt.Errorf("dispatch: %w", err)
	if !IsUnknownTool(wrapped) {
		t.Fatalf("expected wrapped error to match")
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	reg, err := NewRegistry(echoTool("web_browse"), FamilyBudgetBufferTool())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tools := reg.List()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name != "web_browse" || tools[1].Name != "family_budget_buffer" {
		t.Fatalf("unexpected order: %s, %s", tools[0].Name, tools[1].Name)
	}
}

func TestFamilyBudgetBufferDefaults(t *testing.T) {
	reg, err := NewRegistry(FamilyBudgetBufferTool())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	out, err := reg.Invoke(context.Background(), "family_budget_buffer", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["people"] != 4 || out["buffer_percent"] != 10 {
		t.Fatalf("unexpected defaults: %v", out)
	}

	out, err = reg.Invoke(context.Background(), "family_budget_buffer", map[string]interface{}{"people": float64(6)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out["people"] != 6 {
		t.Fatalf("expected people=6, got %v", out["people"])
	}
}
