package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvm/tripagent/config"
)

// MCPBrowser delegates page fetching to an external Chrome MCP server over
// JSON-RPC 2.0. With no server URL configured every call returns a
// not_configured result instead of failing the run.
type MCPBrowser struct {
	baseURL  string
	tool     string
	maxChars int
	client   *http.Client
}

// NewMCPBrowser builds an MCP-backed browser from configuration.
func NewMCPBrowser(cfg config.BrowseConfig) *MCPBrowser {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &MCPBrowser{
		baseURL:  strings.TrimRight(cfg.MCPURL, "/"),
		tool:     cfg.MCPTool,
		maxChars: cfg.MaxChars,
		client:   &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      string                 `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	Result map[string]interface{} `json:"result"`
	Error  *rpcError              `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Browse issues one tools/call against the MCP server.
func (b *MCPBrowser) Browse(ctx context.Context, url, instructions string) (Result, error) {
	if strings.TrimSpace(url) == "" {
		return Result{}, errors.New("browse: invalid url")
	}
	if b.baseURL == "" {
		return Result{
			Status: StatusNotConfigured,
			Error:  "mcp server url is not set",
		}, nil
	}

	raw, err := b.callTool(ctx, b.tool, map[string]interface{}{
		"url":          url,
		"instructions": instructions,
	})
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}, nil
	}
	return b.summarize(raw), nil
}

func (b *MCPBrowser) callTool(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  "tools/call",
		Params:  map[string]interface{}{"name": name, "arguments": args},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("mcp: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcp: do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mcp: status %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mcp: decode: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("mcp: rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	return out.Result, nil
}

// summarize lifts titles and text out of the backend payload, keeping the
// full payload in Raw.
func (b *MCPBrowser) summarize(raw map[string]interface{}) Result {
	res := Result{Status: StatusOK, Raw: raw}
	for _, key := range []string{"eval_titles", "titles"} {
		if items, ok := raw[key].([]interface{}); ok {
			for _, item := range items {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					res.Titles = append(res.Titles, s)
				}
			}
			break
		}
	}
	for _, key := range []string{"eval_text", "text"} {
		if s, ok := raw[key].(string); ok && s != "" {
			res.Text = s
			break
		}
	}
	if b.maxChars > 0 {
		res.Text = clip(res.Text, b.maxChars)
	}
	return res
}
