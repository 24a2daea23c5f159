// Package browse fetches page content for the research stage. Two backends
// exist: a Chrome MCP bridge and an in-process headless chromedp fetcher.
package browse

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/tuanvm/tripagent/config"
)

// Result statuses.
const (
	StatusOK            = "ok"
	StatusError         = "error"
	StatusNotConfigured = "not_configured"
)

// Result is the outcome of one browse call. Raw keeps the backend's full
// payload for downstream flattening; Titles and Text are the summarized view.
type Result struct {
	Status string                 `json:"status"`
	Titles []string               `json:"titles"`
	Text   string                 `json:"text"`
	Error  string                 `json:"error,omitempty"`
	Raw    map[string]interface{} `json:"-"`
}

// Browser fetches one page. Backends report fetch failures inside the Result
// rather than as an error; the error return is reserved for usage mistakes.
type Browser interface {
	Browse(ctx context.Context, url, instructions string) (Result, error)
}

// clip truncates s to at most limit bytes, backing off to a rune boundary so
// the cut never produces invalid UTF-8.
func clip(s string, limit int) string {
	if limit >= len(s) {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// NewBrowser builds the backend selected in configuration.
func NewBrowser(cfg config.BrowseConfig) (Browser, error) {
	switch cfg.Backend {
	case "mcp":
		return NewMCPBrowser(cfg), nil
	case "chromedp":
		return NewChromedpBrowser(cfg), nil
	default:
		return nil, fmt.Errorf("browse: unsupported backend %q", cfg.Backend)
	}
}
