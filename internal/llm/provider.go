// Package llm provides a uniform chat capability over multiple
// text-generation backends. Each backend translates the shared turn sequence
// into its own wire shape; callers treat any returned error as "no text" and
// apply their own fallback policy.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tuanvm/tripagent/config"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the uniform generation contract. Chat issues exactly one network
// call under the configured timeout; it never retries.
type Provider interface {
	Chat(ctx context.Context, messages []Message, temperature float64) (string, error)
}

// NewProvider creates a provider for the configured backend type.
func NewProvider(cfg config.LLMProvider) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	switch cfg.Type {
	case "openai":
		return &OpenAIClient{cfg: cfg, client: client}, nil
	case "gemini":
		return &GeminiClient{cfg: cfg, client: client}, nil
	case "anthropic":
		return &AnthropicClient{cfg: cfg, client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider type: %s", cfg.Type)
	}
}

// splitSystem separates system turns from the rest, joining system content
// into one instruction block.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n"), rest
}

// allowsEmptyKey reports whether a backend may be called without a credential.
// Only local endpoints qualify.
func allowsEmptyKey(baseURL string) bool {
	for _, prefix := range []string{
		"http://localhost",
		"http://127.0.0.1",
		"http://host.docker.internal",
	} {
		if strings.HasPrefix(baseURL, prefix) {
			return true
		}
	}
	return false
}
