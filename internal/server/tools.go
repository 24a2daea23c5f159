package server

import (
	"context"

	"github.com/tuanvm/tripagent/internal/agent"
	"github.com/tuanvm/tripagent/internal/browse"
	"github.com/tuanvm/tripagent/internal/capability"
)

// browseTool adapts the configured browse backend into the registry tool the
// research stage dispatches through. The backend payload is flattened into
// the handler result so downstream extraction sees everything the page
// returned.
func browseTool(b browse.Browser) capability.ToolCard {
	return capability.ToolCard{
		Name:        agent.BrowseToolName,
		Description: "Browse a page and return concise titles and readable text",
		InputSchema: map[string]interface{}{
			"url":          "string",
			"instructions": "string",
		},
		SideEffects: []string{"network"},
		Handler: func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			url, _ := args["url"].(string)
			instructions, _ := args["instructions"].(string)
			res, err := b.Browse(ctx, url, instructions)
			if err != nil {
				return nil, err
			}
			out := map[string]interface{}{
				"status": res.Status,
				"titles": res.Titles,
				"text":   res.Text,
			}
			if res.Error != "" {
				out["error"] = res.Error
			}
			for k, v := range res.Raw {
				if _, taken := out[k]; !taken {
					out[k] = v
				}
			}
			return out, nil
		},
	}
}
