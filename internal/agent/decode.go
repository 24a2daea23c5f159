package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// DecodeCandidateList recovers a JSON array of objects from free-form model
// output. It tries, in order: a direct parse, the contents of the first fenced
// code block, and the greedy first-to-last bracket substring. The first
// attempt that parses to a list wins. Returns nil when nothing parses.
//
// This recovery is inherently approximate; it is kept separate from any
// network call so it can be tested on its own.
func DecodeCandidateList(text string) []map[string]interface{} {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if out := decodeList(text); out != nil {
		return out
	}
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if out := decodeList(strings.TrimSpace(m[1])); out != nil {
			return out
		}
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if out := decodeList(text[start : end+1]); out != nil {
			return out
		}
	}
	return nil
}

func decodeList(text string) []map[string]interface{} {
	var items []interface{}
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
