package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tuanvm/tripagent/config"
)

// GeminiClient speaks the Google generateContent wire format. Gemini has no
// separate system role in this shape, so all turns collapse into one user
// prompt with the system instruction first.
type GeminiClient struct {
	cfg    config.LLMProvider
	client *http.Client
}

// Chat issues one generateContent call.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if c.cfg.APIKey == "" && !allowsEmptyKey(c.cfg.BaseURL) {
		return "", fmt.Errorf("gemini: api key not configured")
	}

	system, rest := splitSystem(messages)
	if len(rest) == 0 {
		return "", fmt.Errorf("gemini: no non-system turns")
	}
	parts := make([]string, 0, len(rest)+1)
	if system != "" {
		parts = append(parts, system)
	}
	for _, m := range rest {
		parts = append(parts, m.Content)
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": text}}},
		},
		"generationConfig": map[string]float64{"temperature": temperature},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal: %w", err)
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("gemini: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
