package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler executes one tool invocation with tool-specific arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// ToolCard represents registry metadata for a tool plus its handler.
type ToolCard struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
	SideEffects []string               `json:"side_effects,omitempty"`
	Handler     Handler                `json:"-"`
}

// ValidateToolCard checks the fields every registered tool must carry.
func ValidateToolCard(tc ToolCard) error {
	if tc.Name == "" {
		return fmt.Errorf("tool card: name required")
	}
	if tc.Handler == nil {
		return fmt.Errorf("tool card %s: handler required", tc.Name)
	}
	return nil
}

// UnknownToolError indicates a dispatch against a name that was never
// registered. Unlike handler failures, which callers degrade into sentinel
// results, this is a wiring error and propagates.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// IsUnknownTool reports whether err wraps an UnknownToolError.
func IsUnknownTool(err error) bool {
	var ute *UnknownToolError
	return errors.As(err, &ute)
}

// Registry holds validated ToolCards keyed by name, preserving registration
// order for listing.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolCard
	order []string
}

// NewRegistry validates the given ToolCards and returns a registry over them.
func NewRegistry(cards ...ToolCard) (*Registry, error) {
	reg := &Registry{tools: map[string]ToolCard{}}
	for _, tc := range cards {
		if err := reg.Register(tc); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds or replaces a tool. Replacing keeps the original position.
func (r *Registry) Register(tc ToolCard) error {
	if err := ValidateToolCard(tc); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tc.Name]; !exists {
		r.order = append(r.order, tc.Name)
	}
	r.tools[tc.Name] = tc
	return nil
}

// Tool returns the ToolCard for a name.
func (r *Registry) Tool(name string) (ToolCard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.tools[name]
	return tc, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []ToolCard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolCard, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke dispatches one call. A missing name returns *UnknownToolError; any
// other error comes from the tool handler itself.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	r.mu.RLock()
	tc, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return tc.Handler(ctx, args)
}
