package capability

import "context"

// FamilyBudgetBufferTool is a static skill suggesting an extra budget buffer
// for family trips. It has no side effects and exists alongside the browse
// tool so the registry always carries more than one capability.
func FamilyBudgetBufferTool() ToolCard {
	return ToolCard{
		Name:        "family_budget_buffer",
		Description: "Suggest a buffer percent for family trips",
		InputSchema: map[string]interface{}{
			"people":         "int",
			"buffer_percent": "int",
		},
		Handler: func(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			people := intArg(args, "people", 4)
			buffer := intArg(args, "buffer_percent", 10)
			return map[string]interface{}{
				"people":         people,
				"buffer_percent": buffer,
				"message":        "Recommended extra buffer for family trips.",
			}, nil
		},
	}
}

func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
