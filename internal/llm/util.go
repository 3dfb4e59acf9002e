// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedBlock matches a markdown code fence with an optional language tag.
var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n?(.*?)```")

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSON recovers a JSON object from free-form model text. It tries, in
// order: the whole text, each fenced code block, and the outermost {...}
// span. Only candidates that parse as a JSON object are returned.
func ExtractJSON(text string) (string, bool) {
	if candidate := CleanJSONBlock(text); isJSONObject(candidate) {
		return candidate, true
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if candidate := strings.TrimSpace(m[1]); isJSONObject(candidate) {
			return candidate, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if candidate := text[start : end+1]; isJSONObject(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isJSONObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}
