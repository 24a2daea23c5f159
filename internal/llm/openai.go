package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tuanvm/tripagent/config"
)

// OpenAIClient speaks the OpenAI-compatible chat completions wire format,
// which also covers OpenRouter and local gateways.
type OpenAIClient struct {
	cfg    config.LLMProvider
	client *http.Client
}

// Chat issues one chat completion call.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if c.cfg.APIKey == "" && !allowsEmptyKey(c.cfg.BaseURL) {
		return "", fmt.Errorf("openai: api key not configured")
	}

	type chatReq struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}
	body, err := json.Marshal(chatReq{Model: c.cfg.Model, Messages: messages, Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("openai: marshal: %w", err)
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("openai: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices")
	}
	return out.Choices[0].Message.Content, nil
}
