package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tuanvm/tripagent/config"
)

const anthropicVersion = "2023-06-01"

// anthropicMaxTokens caps the response size of narrative and extraction calls.
const anthropicMaxTokens = 512

// AnthropicClient speaks the Anthropic messages wire format. The system
// instruction travels in a dedicated top-level field.
type AnthropicClient struct {
	cfg    config.LLMProvider
	client *http.Client
}

// Chat issues one messages call.
func (c *AnthropicClient) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if c.cfg.APIKey == "" && !allowsEmptyKey(c.cfg.BaseURL) {
		return "", fmt.Errorf("anthropic: api key not configured")
	}

	system, rest := splitSystem(messages)
	payload := map[string]interface{}{
		"model":       c.cfg.Model,
		"max_tokens":  anthropicMaxTokens,
		"temperature": temperature,
		"messages":    rest,
	}
	if system != "" {
		payload["system"] = system
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal: %w", err)
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic: status %d", resp.StatusCode)
	}

	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anthropic: decode: %w", err)
	}
	if len(out.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty content")
	}
	return out.Content[0].Text, nil
}
